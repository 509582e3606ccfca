package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"campus-venue/internal/model"
	"campus-venue/internal/repository"
	pkgerrors "campus-venue/pkg/errors"
	"campus-venue/pkg/redis"
	"campus-venue/pkg/storage"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*model.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	rooms  map[uint]*model.Room
	nextID uint
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[uint]*model.Room), nextID: 1}
}

func (m *mockRoomRepo) Create(_ context.Context, room *model.Room) error {
	if room.ID == 0 {
		room.ID = m.nextID
		m.nextID++
	}
	cp := *room
	m.rooms[room.ID] = &cp
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id uint) (*model.Room, error) {
	if r, ok := m.rooms[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) GetByCode(_ context.Context, code string) (*model.Room, error) {
	for _, r := range m.rooms {
		if r.Code == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) List(_ context.Context) ([]model.Room, error) {
	result := make([]model.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ── Mock ReservationRepository ──
// 返回副本并校验 version，行为与 GORM 实现的乐观锁一致

type mockReservationRepo struct {
	reservations map[uint]*model.Reservation
	rooms        *mockRoomRepo
	users        *mockUserRepo
	nextID       uint

	createErr error
	updateErr error
	listErr   error
}

func newMockReservationRepo(rooms *mockRoomRepo, users *mockUserRepo) *mockReservationRepo {
	return &mockReservationRepo{
		reservations: make(map[uint]*model.Reservation),
		rooms:        rooms,
		users:        users,
		nextID:       1,
	}
}

func (m *mockReservationRepo) Create(_ context.Context, r *model.Reservation) error {
	if m.createErr != nil {
		return m.createErr
	}
	r.ID = m.nextID
	m.nextID++
	r.Version = 1
	cp := *r
	cp.Room, cp.Owner = nil, nil
	m.reservations[r.ID] = &cp
	return nil
}

func (m *mockReservationRepo) withRelations(r *model.Reservation) model.Reservation {
	cp := *r
	if room, ok := m.rooms.rooms[r.RoomID]; ok {
		roomCopy := *room
		cp.Room = &roomCopy
	}
	if m.users != nil {
		if u, ok := m.users.users[r.OwnerID]; ok {
			userCopy := *u
			cp.Owner = &userCopy
		}
	}
	return cp
}

func (m *mockReservationRepo) GetByID(_ context.Context, id uint) (*model.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withRelations(r)
	return &cp, nil
}

func (m *mockReservationRepo) List(_ context.Context, filter repository.ReservationFilter) ([]model.Reservation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]model.Reservation, 0)
	for _, r := range m.reservations {
		if filter.OwnerID != nil && r.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.RoomID != nil && r.RoomID != *filter.RoomID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		result = append(result, m.withRelations(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockReservationRepo) ListByStatus(ctx context.Context, status string) ([]model.Reservation, error) {
	return m.List(ctx, repository.ReservationFilter{Status: status})
}

func (m *mockReservationRepo) Update(_ context.Context, r *model.Reservation) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.reservations[r.ID]
	if !ok || stored.Version != r.Version {
		return pkgerrors.ErrOptimisticLock
	}
	r.Version++
	cp := *r
	cp.Room, cp.Owner = nil, nil
	m.reservations[r.ID] = &cp
	return nil
}

func (m *mockReservationRepo) Delete(_ context.Context, id uint) error {
	delete(m.reservations, id)
	return nil
}

// seed 直接写入一条预约，绕过生命周期
func (m *mockReservationRepo) seed(r model.Reservation) *model.Reservation {
	if r.ID == 0 {
		r.ID = m.nextID
		m.nextID++
	} else if r.ID >= m.nextID {
		m.nextID = r.ID + 1
	}
	if r.Version == 0 {
		r.Version = 1
	}
	m.reservations[r.ID] = &r
	return &r
}

// ── Mock BlobStore ──

type mockBlobStore struct {
	blobs     map[string][]byte
	deleted   []string
	counter   int
	storeErr  error
	deleteErr error
	openErr   error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string][]byte)}
}

func (m *mockBlobStore) Store(_ context.Context, data []byte, declaredExt string) (string, error) {
	if m.storeErr != nil {
		return "", m.storeErr
	}
	if len(data) == 0 {
		return "", storage.ErrEmptyFile
	}
	if strings.ToLower(declaredExt) != ".pdf" {
		return "", storage.ErrUnsupportedType
	}
	m.counter++
	ref := fmt.Sprintf("blob-%d.pdf", m.counter)
	m.blobs[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (m *mockBlobStore) Open(_ context.Context, ref string) ([]byte, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	data, ok := m.blobs[ref]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return data, nil
}

func (m *mockBlobStore) Delete(_ context.Context, ref string) error {
	m.deleted = append(m.deleted, ref)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.blobs, ref)
	return nil
}

// ── Mock SnapshotCache ──

type mockCache struct {
	entries map[string][]byte
	gets    int
	sets    int
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (m *mockCache) GetJSON(_ context.Context, key string, dst interface{}) error {
	m.gets++
	data, ok := m.entries[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(data, dst)
}

func (m *mockCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	m.sets++
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.entries[key] = data
	return nil
}

func (m *mockCache) Delete(_ context.Context, keys ...string) error {
	m.deletes++
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// ── Mock AssistantClient ──

type mockAssistantClient struct {
	answer      string
	err         error
	calls       int
	lastSystem  string
	lastContext []byte
	lastPrompt  string
}

func (m *mockAssistantClient) Ask(_ context.Context, systemInstruction string, contextJSON []byte, prompt string) (string, error) {
	m.calls++
	m.lastSystem = systemInstruction
	m.lastContext = contextJSON
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	entries map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{entries: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.entries[jti] = ttl
	return nil
}

// ── 测试仓储聚合 ──

type testRepos struct {
	users        *mockUserRepo
	rooms        *mockRoomRepo
	reservations *mockReservationRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	users := newMockUserRepo()
	rooms := newMockRoomRepo()
	reservations := newMockReservationRepo(rooms, users)
	repo := &repository.Repository{
		User:        users,
		Room:        rooms,
		Reservation: reservations,
	}
	return repo, &testRepos{users: users, rooms: rooms, reservations: reservations}
}
