package session

import (
	"container/list"
	"sync"
	"time"
)

const (
	DefaultMaxSessions = 64
	DefaultTTL         = 15 * time.Minute
)

type storeEntry struct {
	session   *Session
	expiresAt time.Time
	element   *list.Element
}

// Store セッションのLRU+TTLキャッシュ。
// 上限を超えると最も古く使われたものから捨てる
type Store struct {
	mu    sync.Mutex
	max   int
	ttl   time.Duration
	items map[string]*storeEntry
	order *list.List
	now   func() time.Time

	// OnChange 件数が変わったときにロック中に呼ばれる。Storeのメソッドを呼んではいけない
	OnChange func(n int)
}

// NewStore 0以下の値は既定値になる
func NewStore(max int, ttl time.Duration) *Store {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		max:   max,
		ttl:   ttl,
		items: make(map[string]*storeEntry),
		order: list.New(),
		now:   time.Now,
	}
}

// Put セッションを登録する
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[sess.ID]; ok {
		existing.session = sess
		existing.expiresAt = s.now().Add(s.ttl)
		s.order.MoveToFront(existing.element)
		return
	}
	entry := &storeEntry{session: sess, expiresAt: s.now().Add(s.ttl)}
	entry.element = s.order.PushFront(sess.ID)
	s.items[sess.ID] = entry
	for s.order.Len() > s.max {
		back := s.order.Back()
		if back == nil {
			break
		}
		s.removeLocked(back.Value.(string))
	}
	s.changedLocked()
}

// Get 有効なセッションを返し、期限を延長する。期限切れなら破棄してfalse
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.After(entry.expiresAt) {
		s.removeLocked(id)
		s.changedLocked()
		return nil, false
	}
	entry.expiresAt = now.Add(s.ttl)
	s.order.MoveToFront(entry.element)
	return entry.session, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; ok {
		s.removeLocked(id)
		s.changedLocked()
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep 期限切れをまとめて削除し、削除数を返す
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for e := s.order.Back(); e != nil; {
		prev := e.Prev()
		id := e.Value.(string)
		if entry, ok := s.items[id]; ok && now.After(entry.expiresAt) {
			s.removeLocked(id)
			removed++
		}
		e = prev
	}
	if removed > 0 {
		s.changedLocked()
	}
	return removed
}

func (s *Store) removeLocked(id string) {
	entry, ok := s.items[id]
	if !ok {
		return
	}
	if entry.element != nil {
		s.order.Remove(entry.element)
	}
	delete(s.items, id)
}

// changedLocked s.muを保持したまま呼ぶ
func (s *Store) changedLocked() {
	if s.OnChange != nil {
		s.OnChange(len(s.items))
	}
}
