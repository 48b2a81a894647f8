// session.go — C6's SessionContext: multi-session state keyed by ClientID,
// with a reserved "" key for the default session (spec §4.6).
package extension

import "sync"

// defaultSessionKey is the in-memory key for the session used before any
// ClientID has been announced. Spec §6's persisted wire format requires
// this session's map key to literally be "__null__", not an empty
// string — wireSessionKey/clientIDFromWireKey translate between the two
// at the SessionStore/PersistedState boundary.
const defaultSessionKey = ""

// wireDefaultSessionKey is the persisted-state spelling of the default
// session's key (spec §6: "<clientIdOr__null__>").
const wireDefaultSessionKey = "__null__"

func wireSessionKey(clientID string) string {
	if clientID == defaultSessionKey {
		return wireDefaultSessionKey
	}
	return clientID
}

func clientIDFromWireKey(key string) string {
	if key == wireDefaultSessionKey {
		return defaultSessionKey
	}
	return key
}

// CursorPosition is the last known mouse position for a session, used by
// HumanizedMotion path generation.
type CursorPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HumanizationConfig is a session's randomized mouse-motion personality
// (spec §4.7).
type HumanizationConfig struct {
	SpeedMultiplier   float64 `json:"speedMultiplier"`
	OvershootTendency float64 `json:"overshootTendency"`
	CurvatureBias     float64 `json:"curvatureBias"`
	JitterPx          float64 `json:"jitterPx"`
}

// Session is one ClientID's live state.
type Session struct {
	AttachedTabID      int                        `json:"attachedTabId,omitempty"`
	StealthMode        bool                       `json:"stealthMode"`
	StealthTabs        map[int]bool               `json:"-"`
	CursorPositions    map[int]CursorPosition     `json:"-"`
	HumanizationConfig *HumanizationConfig        `json:"humanizationConfig,omitempty"`
}

func newSession() *Session {
	return &Session{
		StealthTabs:     make(map[int]bool),
		CursorPositions: make(map[int]CursorPosition),
	}
}

// persistedSession is Session's on-the-wire shape: maps serialize as
// arrays of [key,value] pairs (spec §6's persisted-state format).
// cursorPositions follows the same [[tabId,value],...] tuple shape as
// stealthTabs rather than an array of {tabId,position} objects.
type persistedSession struct {
	AttachedTabID      int                 `json:"attachedTabId,omitempty"`
	StealthMode        bool                `json:"stealthMode"`
	StealthTabs        [][2]any            `json:"stealthTabs,omitempty"`
	CursorPositions    [][2]any            `json:"cursorPositions,omitempty"`
	HumanizationConfig *HumanizationConfig `json:"humanizationConfig,omitempty"`
}

func (s *Session) toPersisted() persistedSession {
	p := persistedSession{
		AttachedTabID:      s.AttachedTabID,
		StealthMode:        s.StealthMode,
		HumanizationConfig: s.HumanizationConfig,
	}
	for tabID, on := range s.StealthTabs {
		if on {
			p.StealthTabs = append(p.StealthTabs, [2]any{tabID, true})
		}
	}
	for tabID, pos := range s.CursorPositions {
		p.CursorPositions = append(p.CursorPositions, [2]any{tabID, pos})
	}
	return p
}

func sessionFromPersisted(p persistedSession) *Session {
	s := newSession()
	s.AttachedTabID = p.AttachedTabID
	s.StealthMode = p.StealthMode
	// Tolerant of missing subfields (spec §6): absent slices simply leave
	// the maps empty rather than erroring.
	for _, pair := range p.StealthTabs {
		if id, ok := pair[0].(float64); ok {
			s.StealthTabs[int(id)] = true
		}
	}
	for _, pair := range p.CursorPositions {
		id, ok := pair[0].(float64)
		if !ok {
			continue
		}
		posFields, ok := pair[1].(map[string]any)
		if !ok {
			continue
		}
		x, _ := posFields["x"].(float64)
		y, _ := posFields["y"].(float64)
		s.CursorPositions[int(id)] = CursorPosition{X: x, Y: y}
	}
	s.HumanizationConfig = p.HumanizationConfig
	return s
}

// SessionStore is the multi-session map, lazily creating sessions on first
// access and persisting opportunistically on every mutation (spec §4.6).
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	storage  Storage
}

// Storage is the host-provided session storage seam (spec §6's
// __supersurf_session_state key). A nil Storage is valid: "running without
// storage (test mode)" is explicitly supported by spec §4.6.
type Storage interface {
	Load() (PersistedState, bool)
	Save(PersistedState)
}

// PersistedState is the top-level persisted shape (spec §6).
type PersistedState struct {
	Connected           bool                        `json:"connected"`
	DebuggerAttached    bool                        `json:"debuggerAttached"`
	CurrentDebuggerTabID int                        `json:"currentDebuggerTabId,omitempty"`
	Sessions            map[string]persistedSession `json:"sessions"`
}

// NewSessionStore builds an empty store, optionally rehydrating from
// storage if it has prior state (spec §4.6: "rehydrated on worker
// startup").
func NewSessionStore(storage Storage) *SessionStore {
	s := &SessionStore{sessions: make(map[string]*Session), storage: storage}
	if storage != nil {
		if state, ok := storage.Load(); ok {
			for wireKey, persisted := range state.Sessions {
				s.sessions[clientIDFromWireKey(wireKey)] = sessionFromPersisted(persisted)
			}
		}
	}
	return s
}

// Get returns the session for clientID, creating it lazily. An empty
// clientID addresses the default session.
func (s *SessionStore) Get(clientID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(clientID)
}

func (s *SessionStore) getLocked(clientID string) *Session {
	sess, ok := s.sessions[clientID]
	if !ok {
		sess = newSession()
		s.sessions[clientID] = sess
	}
	return sess
}

// Default returns the reserved default session (spec §4.6's top-level
// convenience accessors).
func (s *SessionStore) Default() *Session { return s.Get(defaultSessionKey) }

// Mutate runs fn against clientID's session under the store's lock, then
// persists the full store. Every session mutation should route through
// this so persistence genuinely happens on every write (spec §4.6).
func (s *SessionStore) Mutate(clientID string, fn func(*Session)) {
	s.mu.Lock()
	sess := s.getLocked(clientID)
	fn(sess)
	s.persistLocked()
	s.mu.Unlock()
}

func (s *SessionStore) persistLocked() {
	if s.storage == nil {
		return
	}
	state := PersistedState{Connected: true, Sessions: make(map[string]persistedSession, len(s.sessions))}
	for clientID, sess := range s.sessions {
		state.Sessions[wireSessionKey(clientID)] = sess.toPersisted()
	}
	s.storage.Save(state)
}

// Clear removes every session (used by a "clear storage" test reset,
// spec §4.6).
func (s *SessionStore) Clear() {
	s.mu.Lock()
	s.sessions = make(map[string]*Session)
	s.persistLocked()
	s.mu.Unlock()
}
