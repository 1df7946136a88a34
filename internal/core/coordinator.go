package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/yokyay/classhub/internal/domain"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrWrongRole    = errors.New("wrong role for this action")
	ErrNotMember    = errors.New("connection is not a room member")
)

// Coordinator owns the room registry and every room's session state and runs
// the admission protocol over them. All multi-step transitions happen inside
// one critical section; outbound events are collected during the mutation and
// dispatched only after the lock is released, so observers always see state
// at-or-after the mutation.
type Coordinator struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]*domain.Room
	state  map[domain.RoomID]*sessionState
	byConn map[ConnID]domain.RoomID // reverse index, keeps disconnect O(1)

	notifier Notifier
	blobs    BlobPurger
}

func NewCoordinator(notifier Notifier, blobs BlobPurger) *Coordinator {
	return &Coordinator{
		rooms:    make(map[domain.RoomID]*domain.Room),
		state:    make(map[domain.RoomID]*sessionState),
		byConn:   make(map[ConnID]domain.RoomID),
		notifier: notifier,
		blobs:    blobs,
	}
}

// delivery is one queued outbound event with its audience.
type delivery struct {
	to       []ConnID
	everyone bool
	event    any
}

func toConn(id ConnID, event any) delivery { return delivery{to: []ConnID{id}, event: event} }

func (c *Coordinator) dispatch(out []delivery) {
	for _, d := range out {
		switch {
		case d.everyone:
			c.notifier.ToEveryone(d.event)
		case len(d.to) == 1:
			c.notifier.ToConnection(d.to[0], d.event)
		default:
			c.notifier.ToConnections(d.to, d.event)
		}
	}
}

// ---- room registry ----

func (c *Coordinator) CreateRoom(title, teacherName string) (*domain.Room, error) {
	room, err := domain.NewRoom(title, teacherName)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.rooms[room.ID] = room
	c.state[room.ID] = newSessionState()
	c.mu.Unlock()
	log.Info().Str("module", "core").Str("room", string(room.ID)).Str("title", title).Msg("room created")
	return room, nil
}

func (c *Coordinator) GetRoom(id domain.RoomID) (*domain.Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	room, ok := c.rooms[id]
	return room, ok
}

func (c *Coordinator) ListRooms() []*domain.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Values(c.rooms)
}

// DeleteRoom removes the room, its session state and its stored blobs.
// Idempotent: deleting an unknown id is a no-op. Members still connected are
// told the class closed and everyone learns the room is gone.
func (c *Coordinator) DeleteRoom(id domain.RoomID) {
	c.mu.Lock()
	out := c.removeRoomLocked(id)
	c.mu.Unlock()
	c.dispatch(out)
}

// removeRoomLocked tears a room down and returns the farewell events.
// Caller holds c.mu.
func (c *Coordinator) removeRoomLocked(id domain.RoomID) []delivery {
	state, ok := c.state[id]
	if !ok {
		return nil
	}
	out := []delivery{
		{to: state.memberIDs(), event: ClassClosedEvent{Type: EventClassClosed, RoomID: id}},
	}
	for conn := range state.pending {
		delete(c.byConn, conn)
	}
	for conn := range state.approved {
		delete(c.byConn, conn)
	}
	for conn := range state.observers {
		delete(c.byConn, conn)
	}
	if state.ownerConn != "" {
		delete(c.byConn, state.ownerConn)
	}
	delete(c.rooms, id)
	delete(c.state, id)
	if c.blobs != nil {
		c.blobs.PurgeRoom(id)
	}
	out = append(out, delivery{everyone: true, event: RoomRemovedEvent{Type: EventRoomRemoved, RoomID: id}})
	log.Info().Str("module", "core").Str("room", string(id)).Msg("room removed")
	return out
}

// ---- admission protocol ----

// ConnectOwner admits a teacher connection directly and makes it the room's
// approval authority. A later teacher connection supersedes an earlier one
// (last writer wins); the earlier one keeps receiving room broadcasts.
func (c *Coordinator) ConnectOwner(roomID domain.RoomID, conn ConnID, user domain.Identity) error {
	if user.Role != domain.RoleTeacher {
		return ErrWrongRole
	}
	c.mu.Lock()
	state, ok := c.state[roomID]
	if !ok {
		c.mu.Unlock()
		return ErrRoomNotFound
	}
	c.detachLocked(conn)
	if prev := state.ownerConn; prev != "" && prev != conn {
		// Last teacher connection wins the approval authority; the earlier
		// one stays a plain room member.
		state.observers[prev] = struct{}{}
	}
	state.ownerConn = conn
	delete(state.observers, conn)
	c.byConn[conn] = roomID
	out := []delivery{
		toConn(conn, ChatHistoryEvent{Type: EventChatHistory, Messages: state.transcriptSnapshot()}),
		toConn(conn, PendingListEvent{Type: EventPendingList, Pending: state.pendingSnapshot()}),
		{to: state.memberIDs(), event: ApprovedListEvent{Type: EventApprovedList, Approved: state.approvedSnapshot()}},
	}
	c.mu.Unlock()
	log.Info().Str("module", "core").Str("room", string(roomID)).Str("sid", string(conn)).Str("name", user.Name).Msg("teacher joined")
	c.dispatch(out)
	return nil
}

// RequestJoin handles a student connection. Names already on the room's
// allow-list are admitted immediately; anyone else waits in pending until the
// teacher decides or the connection drops. An absent teacher is tolerated:
// the request just stays queued.
func (c *Coordinator) RequestJoin(roomID domain.RoomID, conn ConnID, user domain.Identity) error {
	if user.Role != domain.RoleStudent {
		return ErrWrongRole
	}
	c.mu.Lock()
	state, ok := c.state[roomID]
	if !ok {
		c.mu.Unlock()
		return ErrRoomNotFound
	}
	c.detachLocked(conn)
	c.byConn[conn] = roomID

	var out []delivery
	key := user.NormalizedKey()
	if _, allowed := state.approvedUsers[key]; allowed && key != "" {
		state.approved[conn] = Participant{SocketID: conn, User: user}
		out = append(out,
			toConn(conn, JoinApprovedEvent{Type: EventJoinApproved, RoomID: roomID}),
			toConn(conn, ChatHistoryEvent{Type: EventChatHistory, Messages: state.transcriptSnapshot()}),
		)
		if state.ownerConn != "" {
			out = append(out, toConn(state.ownerConn, StudentApprovedEvent{
				Type: EventStudentApproved, RoomID: roomID, SocketID: conn, User: user, AutoApproved: true,
			}))
		}
		out = append(out, delivery{to: state.memberIDs(), event: ApprovedListEvent{Type: EventApprovedList, Approved: state.approvedSnapshot()}})
		c.mu.Unlock()
		log.Info().Str("module", "core").Str("room", string(roomID)).Str("sid", string(conn)).Str("name", user.Name).Msg("student auto-approved")
		c.dispatch(out)
		return nil
	}

	state.pending[conn] = JoinRequest{SocketID: conn, User: user}
	if state.ownerConn != "" {
		out = append(out, toConn(state.ownerConn, PendingListEvent{Type: EventJoinRequest, Pending: state.pendingSnapshot()}))
	}
	c.mu.Unlock()
	log.Info().Str("module", "core").Str("room", string(roomID)).Str("sid", string(conn)).Str("name", user.Name).Msg("join requested")
	c.dispatch(out)
	return nil
}

// ApproveJoin moves a pending connection into the room. Only the current
// teacher connection may approve; any other caller, and any stale target id,
// is a silent no-op. The approved name joins the room's allow-list for the
// lifetime of the room.
func (c *Coordinator) ApproveJoin(roomID domain.RoomID, caller, target ConnID) {
	c.mu.Lock()
	state, ok := c.state[roomID]
	if !ok || state.ownerConn != caller {
		c.mu.Unlock()
		return
	}
	req, ok := state.pending[target]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(state.pending, target)
	if key := req.User.NormalizedKey(); key != "" {
		state.approvedUsers[key] = struct{}{}
	}
	state.approved[target] = Participant{SocketID: target, User: req.User}
	out := []delivery{
		toConn(target, JoinApprovedEvent{Type: EventJoinApproved, RoomID: roomID}),
		toConn(target, ChatHistoryEvent{Type: EventChatHistory, Messages: state.transcriptSnapshot()}),
		toConn(state.ownerConn, PendingListEvent{Type: EventJoinRequest, Pending: state.pendingSnapshot()}),
		toConn(state.ownerConn, StudentApprovedEvent{
			Type: EventStudentApproved, RoomID: roomID, SocketID: target, User: req.User, AutoApproved: false,
		}),
		{to: state.memberIDs(), event: ApprovedListEvent{Type: EventApprovedList, Approved: state.approvedSnapshot()}},
	}
	c.mu.Unlock()
	log.Info().Str("module", "core").Str("room", string(roomID)).Str("sid", string(target)).Str("name", req.User.Name).Msg("student approved")
	c.dispatch(out)
}

// SendChat appends to the transcript and fans the message out to every room
// member including the sender. Pending connections are not members and get
// nothing until admitted.
func (c *Coordinator) SendChat(roomID domain.RoomID, conn ConnID, user domain.Identity, text string) error {
	msg, err := domain.NewChatMessage(user, text)
	if err != nil {
		return err
	}
	c.mu.Lock()
	state, ok := c.state[roomID]
	if !ok {
		c.mu.Unlock()
		return ErrRoomNotFound
	}
	if !state.isMember(conn) {
		c.mu.Unlock()
		return ErrNotMember
	}
	state.messages = append(state.messages, msg)
	out := []delivery{
		{to: state.memberIDs(), event: ChatMessageEvent{Type: EventChatMessage, ChatMessage: msg}},
	}
	c.mu.Unlock()
	c.dispatch(out)
	return nil
}

// CloseClass is the teacher ending the session: farewell to members, then
// room, state and blobs go away atomically, then a global removal notice.
// Non-teacher callers are silently ignored.
func (c *Coordinator) CloseClass(roomID domain.RoomID, caller ConnID) {
	c.mu.Lock()
	state, ok := c.state[roomID]
	if !ok || state.ownerConn != caller {
		c.mu.Unlock()
		return
	}
	out := c.removeRoomLocked(roomID)
	c.mu.Unlock()
	c.dispatch(out)
}

// Disconnect reconciles state when the transport reports a connection gone.
// The room itself survives a teacher disconnect; pending requests it was
// about to review survive too.
func (c *Coordinator) Disconnect(conn ConnID) {
	c.mu.Lock()
	roomID, ok := c.byConn[conn]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.byConn, conn)
	state, ok := c.state[roomID]
	if !ok {
		c.mu.Unlock()
		return
	}
	changed := false
	if state.ownerConn == conn {
		state.ownerConn = ""
		changed = true
	}
	if _, ok := state.pending[conn]; ok {
		delete(state.pending, conn)
	}
	if _, ok := state.approved[conn]; ok {
		delete(state.approved, conn)
		changed = true
	}
	delete(state.observers, conn)
	var out []delivery
	if changed {
		out = append(out, delivery{to: state.memberIDs(), event: ApprovedListEvent{Type: EventApprovedList, Approved: state.approvedSnapshot()}})
	}
	c.mu.Unlock()
	log.Info().Str("module", "core").Str("room", string(roomID)).Str("sid", string(conn)).Msg("connection left")
	c.dispatch(out)
}

// detachLocked drops any earlier room association of the connection before it
// binds to a new room, keeping the reverse index one-to-one. Caller holds c.mu.
func (c *Coordinator) detachLocked(conn ConnID) {
	prev, ok := c.byConn[conn]
	if !ok {
		return
	}
	if state, ok := c.state[prev]; ok {
		if state.ownerConn == conn {
			state.ownerConn = ""
		}
		delete(state.pending, conn)
		delete(state.approved, conn)
		delete(state.observers, conn)
	}
	delete(c.byConn, conn)
}

// ---- queries ----

// ResendApproved pushes a fresh approved-list snapshot to the teacher, used
// when its UI signals readiness after (re)connecting.
func (c *Coordinator) ResendApproved(roomID domain.RoomID, caller ConnID) {
	c.mu.RLock()
	state, ok := c.state[roomID]
	if !ok || state.ownerConn != caller {
		c.mu.RUnlock()
		return
	}
	out := []delivery{toConn(caller, ApprovedListEvent{Type: EventApprovedList, Approved: state.approvedSnapshot()})}
	c.mu.RUnlock()
	c.dispatch(out)
}

// IsMember reports whether the connection is currently admitted to the room.
func (c *Coordinator) IsMember(roomID domain.RoomID, conn ConnID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.state[roomID]
	return ok && state.isMember(conn)
}

// MemberIDs snapshots the room's broadcast audience for transport-level relay.
func (c *Coordinator) MemberIDs(roomID domain.RoomID) []ConnID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.state[roomID]
	if !ok {
		return nil
	}
	return state.memberIDs()
}

// IsApprovedName reports whether the identity's normalized name is on the
// room's allow-list. The media token endpoint gates students on this.
func (c *Coordinator) IsApprovedName(roomID domain.RoomID, user domain.Identity) bool {
	key := user.NormalizedKey()
	if key == "" {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.state[roomID]
	if !ok {
		return false
	}
	_, ok = state.approvedUsers[key]
	return ok
}

// Stats feeds the prometheus gauges.
func (c *Coordinator) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{Rooms: len(c.rooms)}
	for _, state := range c.state {
		if state.ownerConn != "" {
			s.Teachers++
		}
		s.Students += len(state.approved)
	}
	return s
}
