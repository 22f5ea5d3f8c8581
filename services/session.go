package services

import "sync"

// StateKind is the conversation state of one actor (user or admin). Exactly
// one state is active per actor; entering a flow replaces the previous one.
type StateKind int

const (
	StateNone StateKind = iota
	StateSelectingUser
	StateComposingOnce
	StateChatting
	StateAwaitingScreenshot
	StateAwaitingBroadcast
	StateConfirmBroadcast
	StateAwaitingSupportText
	StateAIChat
	StateAwaitingRestoreFile
	StateAwaitingQuickReply
)

// Session is the tagged state variant: the kind plus the payload the flow
// needs (compose/quick-reply target, pending order id, AI persona flags).
type Session struct {
	Kind      StateKind
	TargetID  int64
	OrderID   string
	Persona   string
	ForceDemo bool
}

// AI personas.
const (
	PersonaConsultant = "consultant"
	PersonaUniversal  = "universal"
	PersonaAdmin      = "admin"
)

// SessionManager owns all transient conversation state: the per-actor state
// register and the two inverse relay-link maps. Handlers never see the raw
// maps; everything goes through these methods under one lock.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[int64]Session
	adminToUser map[int64]int64
	userToAdmin map[int64]int64
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions:    make(map[int64]Session),
		adminToUser: make(map[int64]int64),
		userToAdmin: make(map[int64]int64),
	}
}

func (m *SessionManager) Get(actorID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[actorID]
}

func (m *SessionManager) Set(actorID int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[actorID] = s
}

// Clear drops the actor's state unconditionally, whichever flow set it.
func (m *SessionManager) Clear(actorID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, actorID)
}

// EnterChat links an admin with a user, evicting any previous link of this
// admin in both directions. Returns the evicted user id, if any.
func (m *SessionManager) EnterChat(adminID, userID int64) (prevUser int64, evicted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.adminToUser[adminID]; ok {
		delete(m.adminToUser, adminID)
		delete(m.userToAdmin, old)
		prevUser, evicted = old, true
	}
	m.adminToUser[adminID] = userID
	m.userToAdmin[userID] = adminID
	return prevUser, evicted
}

// EndChat removes the admin's link in both directions and returns the user
// that was linked.
func (m *SessionManager) EndChat(adminID int64) (userID int64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok = m.adminToUser[adminID]
	if ok {
		delete(m.adminToUser, adminID)
		delete(m.userToAdmin, userID)
	}
	return userID, ok
}

func (m *SessionManager) LinkedUser(adminID int64) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uid, ok := m.adminToUser[adminID]
	return uid, ok
}

func (m *SessionManager) LinkedAdmin(userID int64) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	aid, ok := m.userToAdmin[userID]
	return aid, ok
}
