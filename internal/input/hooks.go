package input

import (
	"sort"
	"sync"

	"github.com/dshills/modalkit/internal/input/key"
)

// Hook observes and filters the keys and commands of an engine. Hooks
// run with the engine lock held and must not call back into the engine.
type Hook interface {
	// PreKey runs before a typed key is processed. Returning true
	// consumes the key.
	PreKey(ev *key.Event, st Status) bool

	// PostKey runs after a typed key was processed.
	PostKey(ev key.Event, st Status)

	// PreCommand runs before a command is dispatched. Returning true
	// drops the command.
	PreCommand(name string, st Status) bool
}

// HookPriority defines the execution order for hooks.
// Lower values execute first.
type HookPriority int

const (
	// HookPriorityHighest runs before all other hooks.
	HookPriorityHighest HookPriority = -1000
	// HookPriorityHigh runs early in the hook chain.
	HookPriorityHigh HookPriority = -100
	// HookPriorityNormal is the default priority.
	HookPriorityNormal HookPriority = 0
	// HookPriorityLow runs late in the hook chain.
	HookPriorityLow HookPriority = 100
	// HookPriorityLowest runs after all other hooks.
	HookPriorityLowest HookPriority = 1000
)

// HookID uniquely identifies a registered hook.
type HookID uint64

// HookRegistration holds metadata about a registered hook.
type HookRegistration struct {
	ID       HookID
	Name     string
	Priority HookPriority
	Hook     Hook
}

// HookManager manages hooks with priorities and named registration.
type HookManager struct {
	mu      sync.RWMutex
	hooks   []HookRegistration
	nextID  HookID
	sorted  bool
	enabled bool
}

// NewHookManager creates a new hook manager.
func NewHookManager() *HookManager {
	return &HookManager{enabled: true, sorted: true}
}

// Register adds a hook with default priority.
func (m *HookManager) Register(hook Hook) HookID {
	return m.RegisterWithOptions(hook, "", HookPriorityNormal)
}

// RegisterWithPriority adds a hook with specified priority.
func (m *HookManager) RegisterWithPriority(hook Hook, priority HookPriority) HookID {
	return m.RegisterWithOptions(hook, "", priority)
}

// RegisterNamed adds a hook with a name for later reference.
func (m *HookManager) RegisterNamed(hook Hook, name string) HookID {
	return m.RegisterWithOptions(hook, name, HookPriorityNormal)
}

// RegisterWithOptions adds a hook with all options specified. A hook
// registered under an existing name replaces it.
func (m *HookManager) RegisterWithOptions(hook Hook, name string, priority HookPriority) HookID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name != "" {
		m.removeLocked(func(r HookRegistration) bool { return r.Name == name })
	}
	m.nextID++
	m.hooks = append(m.hooks, HookRegistration{
		ID:       m.nextID,
		Name:     name,
		Priority: priority,
		Hook:     hook,
	})
	m.sorted = false
	return m.nextID
}

// Unregister removes a hook by ID.
func (m *HookManager) Unregister(id HookID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(func(r HookRegistration) bool { return r.ID == id })
}

// UnregisterByName removes a hook by name.
func (m *HookManager) UnregisterByName(name string) bool {
	if name == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(func(r HookRegistration) bool { return r.Name == name })
}

func (m *HookManager) removeLocked(match func(HookRegistration) bool) bool {
	for i := range m.hooks {
		if match(m.hooks[i]) {
			m.hooks = append(m.hooks[:i], m.hooks[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns a hook registration by ID.
func (m *HookManager) Get(id HookID) (HookRegistration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.hooks {
		if r.ID == id {
			return r, true
		}
	}
	return HookRegistration{}, false
}

// SetEnabled enables or disables all hooks.
func (m *HookManager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// IsEnabled returns whether hooks are enabled.
func (m *HookManager) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Count returns the number of registered hooks.
func (m *HookManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hooks)
}

// List returns all hook registrations in execution order.
func (m *HookManager) List() []HookRegistration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureSorted()
	result := make([]HookRegistration, len(m.hooks))
	copy(result, m.hooks)
	return result
}

// Clear removes all hooks.
func (m *HookManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = nil
	m.sorted = true
}

// ensureSorted sorts hooks by priority if needed.
func (m *HookManager) ensureSorted() {
	if m.sorted {
		return
	}
	sort.SliceStable(m.hooks, func(i, j int) bool {
		return m.hooks[i].Priority < m.hooks[j].Priority
	})
	m.sorted = true
}

// active returns the hooks to run in priority order.
func (m *HookManager) active() []Hook {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled || len(m.hooks) == 0 {
		return nil
	}
	m.ensureSorted()
	hooks := make([]Hook, len(m.hooks))
	for i := range m.hooks {
		hooks[i] = m.hooks[i].Hook
	}
	return hooks
}

// RunPreKey runs all PreKey hooks in priority order.
// Returns true if any hook consumed the key.
func (m *HookManager) RunPreKey(ev *key.Event, st Status) bool {
	for _, hook := range m.active() {
		if hook.PreKey(ev, st) {
			return true
		}
	}
	return false
}

// RunPostKey runs all PostKey hooks in priority order.
func (m *HookManager) RunPostKey(ev key.Event, st Status) {
	for _, hook := range m.active() {
		hook.PostKey(ev, st)
	}
}

// RunPreCommand runs all PreCommand hooks in priority order.
// Returns true if any hook dropped the command.
func (m *HookManager) RunPreCommand(name string, st Status) bool {
	for _, hook := range m.active() {
		if hook.PreCommand(name, st) {
			return true
		}
	}
	return false
}

// BaseHook provides a default implementation of the Hook interface.
// Embed this in custom hooks to only implement the methods you need.
type BaseHook struct{}

// PreKey does not consume keys.
func (BaseHook) PreKey(*key.Event, Status) bool { return false }

// PostKey is a no-op.
func (BaseHook) PostKey(key.Event, Status) {}

// PreCommand does not drop commands.
func (BaseHook) PreCommand(string, Status) bool { return false }

// FuncHook wraps functions into a Hook.
type FuncHook struct {
	PreKeyFunc     func(*key.Event, Status) bool
	PostKeyFunc    func(key.Event, Status)
	PreCommandFunc func(string, Status) bool
}

// PreKey calls PreKeyFunc if set.
func (h FuncHook) PreKey(ev *key.Event, st Status) bool {
	if h.PreKeyFunc != nil {
		return h.PreKeyFunc(ev, st)
	}
	return false
}

// PostKey calls PostKeyFunc if set.
func (h FuncHook) PostKey(ev key.Event, st Status) {
	if h.PostKeyFunc != nil {
		h.PostKeyFunc(ev, st)
	}
}

// PreCommand calls PreCommandFunc if set.
func (h FuncHook) PreCommand(name string, st Status) bool {
	if h.PreCommandFunc != nil {
		return h.PreCommandFunc(name, st)
	}
	return false
}

// LoggingHook logs keys and commands.
type LoggingHook struct {
	BaseHook
	Logger Logger
}

// PreKey logs the key.
func (h LoggingHook) PreKey(ev *key.Event, st Status) bool {
	if h.Logger != nil {
		h.Logger.Debug("key %s (mode=%s)", ev, st.Mode)
	}
	return false
}

// PostKey logs the state the key left.
func (h LoggingHook) PostKey(ev key.Event, st Status) {
	if h.Logger != nil && st.PendingKeys != "" {
		h.Logger.Debug("pending %s after %s", st.PendingKeys, ev)
	}
}

// PreCommand logs the command.
func (h LoggingHook) PreCommand(name string, _ Status) bool {
	if h.Logger != nil {
		h.Logger.Debug("command %s", name)
	}
	return false
}

// FilterHook drops keys or commands matching predicates.
type FilterHook struct {
	BaseHook

	// KeyFilter returns true to consume a key.
	KeyFilter func(*key.Event, Status) bool

	// CommandFilter returns true to drop a command.
	CommandFilter func(string, Status) bool
}

// PreKey applies the key filter.
func (h FilterHook) PreKey(ev *key.Event, st Status) bool {
	if h.KeyFilter != nil {
		return h.KeyFilter(ev, st)
	}
	return false
}

// PreCommand applies the command filter.
func (h FilterHook) PreCommand(name string, st Status) bool {
	if h.CommandFilter != nil {
		return h.CommandFilter(name, st)
	}
	return false
}
