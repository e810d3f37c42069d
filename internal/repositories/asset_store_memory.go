package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"asset-system/internal/entities"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/eventbus"
)

// MemoryAssetStore — потокобезопасное хранилище активов в памяти.
// Повторяет контракт PostgresAssetStore, включая условный переход
// статуса и батчевое удаление; используется в тестах сервисов.
type MemoryAssetStore struct {
	mu              sync.RWMutex
	assets          map[string]*entities.Asset
	logs            []entities.LogEntry
	audits          map[string]*entities.AuditRecord
	nextLogID       uint64
	bus             *eventbus.Bus
	subs            *subscriberSet
	deleteBatchSize int
}

func NewMemoryAssetStore(bus *eventbus.Bus, deleteBatchSize int) *MemoryAssetStore {
	if deleteBatchSize <= 0 {
		deleteBatchSize = 500
	}
	return &MemoryAssetStore{
		assets:          make(map[string]*entities.Asset),
		audits:          make(map[string]*entities.AuditRecord),
		bus:             bus,
		subs:            newSubscriberSet(),
		deleteBatchSize: deleteBatchSize,
	}
}

func (s *MemoryAssetStore) List(ctx context.Context, filter AssetFilter) ([]entities.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(filter), nil
}

func (s *MemoryAssetStore) listLocked(filter AssetFilter) []entities.Asset {
	out := make([]entities.Asset, 0)
	for _, a := range s.assets {
		if filter.Matches(a) {
			out = append(out, *cloneAsset(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *MemoryAssetStore) Find(ctx context.Context, orgID, id string) (*entities.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok || a.OrgID != orgID {
		return nil, apperrors.ErrAssetNotFound
	}
	return cloneAsset(a), nil
}

func (s *MemoryAssetStore) Create(ctx context.Context, asset *entities.Asset) (string, error) {
	s.mu.Lock()
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	if asset.MetaData == nil {
		asset.MetaData = entities.Metadata{}
	}
	now := time.Now().UTC()
	asset.CreatedAt = now
	asset.UpdatedAt = now
	asset.RebuildSearchKeywords()
	s.assets[asset.ID] = cloneAsset(asset)
	s.mu.Unlock()

	s.notifyChange(ctx, asset.OrgID)
	return asset.ID, nil
}

func (s *MemoryAssetStore) Update(ctx context.Context, orgID, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	a, ok := s.assets[id]
	if !ok || a.OrgID != orgID {
		s.mu.Unlock()
		return apperrors.ErrAssetNotFound
	}
	applyFields(a, normalizeFieldValues(fields))
	a.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	s.notifyChange(ctx, orgID)
	return nil
}

// ApplyTransition — условный переход: статус меняется только если
// текущий равен ожидаемому, запись журнала добавляется в той же
// критической секции. Два конкурирующих перехода по одному активу
// дают ровно один успех.
func (s *MemoryAssetStore) ApplyTransition(ctx context.Context, orgID string, req TransitionRequest) (*entities.Asset, error) {
	s.mu.Lock()
	a, ok := s.assets[req.AssetID]
	if !ok || a.OrgID != orgID {
		s.mu.Unlock()
		return nil, apperrors.ErrAssetNotFound
	}
	if a.Status != req.Expected {
		current := a.Status
		s.mu.Unlock()
		return nil, apperrors.NewInvalidStateError(req.AssetID, string(req.Expected), string(current))
	}

	applyFields(a, normalizeFieldValues(req.Fields))
	a.UpdatedAt = time.Now().UTC()

	entry := req.Log
	s.nextLogID++
	entry.ID = s.nextLogID
	entry.OrgID = orgID
	entry.AssetID = a.ID
	entry.AssetName = a.Name
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.logs = append(s.logs, entry)

	result := cloneAsset(a)
	s.mu.Unlock()

	s.notifyChange(ctx, orgID)
	return result, nil
}

func (s *MemoryAssetStore) Delete(ctx context.Context, orgID, id string) error {
	s.mu.Lock()
	a, ok := s.assets[id]
	if !ok || a.OrgID != orgID {
		s.mu.Unlock()
		return apperrors.ErrAssetNotFound
	}
	delete(s.assets, id)
	s.mu.Unlock()

	s.notifyChange(ctx, orgID)
	return nil
}

func (s *MemoryAssetStore) BatchDelete(ctx context.Context, orgID string, ids []string) (int, error) {
	batches := 0
	for len(ids) > 0 {
		n := len(ids)
		if n > s.deleteBatchSize {
			n = s.deleteBatchSize
		}
		chunk := ids[:n]
		ids = ids[n:]

		s.mu.Lock()
		for _, id := range chunk {
			if a, ok := s.assets[id]; ok && a.OrgID == orgID {
				delete(s.assets, id)
			}
		}
		s.mu.Unlock()
		batches++
	}

	if batches > 0 {
		s.notifyChange(ctx, orgID)
	}
	return batches, nil
}

func (s *MemoryAssetStore) DeleteAll(ctx context.Context, orgID string) (int, int, error) {
	s.mu.RLock()
	ids := make([]string, 0)
	for id, a := range s.assets {
		if a.OrgID == orgID {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	batches, err := s.BatchDelete(ctx, orgID, ids)
	return len(ids), batches, err
}

func (s *MemoryAssetStore) Subscribe(ctx context.Context, filter AssetFilter) (<-chan []entities.Asset, error) {
	sub := s.subs.add(ctx, filter)

	go func() {
		snapshot, err := s.List(ctx, filter)
		if err != nil {
			return
		}
		select {
		case sub.ch <- snapshot:
		case <-ctx.Done():
		}
	}()

	return sub.ch, nil
}

func (s *MemoryAssetStore) notifyChange(ctx context.Context, orgID string) {
	s.subs.notify(orgID, s.List)
	if s.bus != nil {
		s.bus.Publish(ctx, AssetsChangedEvent{OrgID: orgID})
	}
}

// applyFields применяет документные поля к активу. Семантика повторяет
// SQL-апдейт хранилища: metaData.* патчит отдельные ключи, metaData
// целиком сливается поверх существующих, статусные и строковые поля
// заменяются. Индекс поиска пересобирается после применения.
func applyFields(a *entities.Asset, fields map[string]interface{}) {
	if a.MetaData == nil {
		a.MetaData = entities.Metadata{}
	}
	for key, value := range fields {
		if isMetaField(key) {
			name := metaFieldName(key)
			if value == nil {
				delete(a.MetaData, name)
			} else {
				a.MetaData[name] = value
			}
			continue
		}
		switch key {
		case FieldName:
			a.Name, _ = value.(string)
		case FieldArea:
			a.Area, _ = value.(string)
		case FieldQRCode:
			a.QRCode, _ = value.(string)
		case FieldStatus:
			if st, ok := value.(string); ok {
				a.Status = entities.AssetStatus(st)
			} else if st, ok := value.(entities.AssetStatus); ok {
				a.Status = st
			}
		case FieldType:
			if t, ok := value.(string); ok {
				a.Type = entities.AssetType(t)
			} else if t, ok := value.(entities.AssetType); ok {
				a.Type = t
			}
		case FieldTotalKeys:
			switch v := value.(type) {
			case nil:
				a.TotalKeys = nil
			case int:
				n := v
				a.TotalKeys = &n
			case *int:
				a.TotalKeys = v
			case float64:
				n := int(v)
				a.TotalKeys = &n
			}
		case FieldCheckedOutAt:
			switch v := value.(type) {
			case nil:
				a.CheckedOutAt = nil
			case time.Time:
				t := v
				a.CheckedOutAt = &t
			case *time.Time:
				a.CheckedOutAt = v
			}
		case FieldMetaData:
			switch v := value.(type) {
			case entities.Metadata:
				a.MetaData = a.MetaData.Merge(v)
			case map[string]interface{}:
				a.MetaData = a.MetaData.Merge(entities.Metadata(v))
			}
		case FieldSearchKeywords:
			if kw, ok := value.([]string); ok {
				a.SearchKeywords = kw
			}
		}
	}
	a.RebuildSearchKeywords()
}

func cloneAsset(a *entities.Asset) *entities.Asset {
	cp := *a
	cp.MetaData = a.MetaData.Clone()
	if a.SearchKeywords != nil {
		cp.SearchKeywords = append([]string(nil), a.SearchKeywords...)
	}
	if a.TotalKeys != nil {
		n := *a.TotalKeys
		cp.TotalKeys = &n
	}
	if a.CheckedOutAt != nil {
		t := *a.CheckedOutAt
		cp.CheckedOutAt = &t
	}
	return &cp
}

// MemoryLogRepository и MemoryAuditRepository разделяют состояние
// с MemoryAssetStore: журнал переходов пишется хранилищем атомарно,
// остальные записи добавляются напрямую.
type MemoryLogRepository struct {
	store *MemoryAssetStore
}

func NewMemoryLogRepository(store *MemoryAssetStore) LogRepositoryInterface {
	return &MemoryLogRepository{store: store}
}

func (r *MemoryLogRepository) Append(ctx context.Context, entry entities.LogEntry) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLogID++
	entry.ID = s.nextLogID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (r *MemoryLogRepository) ListByAsset(ctx context.Context, orgID, assetID string, limit, offset uint64) ([]entities.LogEntry, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.LogEntry, 0)
	for i := len(s.logs) - 1; i >= 0; i-- {
		e := s.logs[i]
		if e.OrgID == orgID && e.AssetID == assetID {
			out = append(out, e)
		}
	}
	return paginateEntries(out, limit, offset), nil
}

func (r *MemoryLogRepository) ListByOrg(ctx context.Context, orgID string, limit, offset uint64) ([]entities.LogEntry, uint64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.LogEntry, 0)
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].OrgID == orgID {
			out = append(out, s.logs[i])
		}
	}
	total := uint64(len(out))
	return paginateEntries(out, limit, offset), total, nil
}

func paginateEntries(entries []entities.LogEntry, limit, offset uint64) []entities.LogEntry {
	if offset >= uint64(len(entries)) {
		return []entities.LogEntry{}
	}
	entries = entries[offset:]
	if limit > 0 && limit < uint64(len(entries)) {
		entries = entries[:limit]
	}
	return entries
}

type MemoryAuditRepository struct {
	store *MemoryAssetStore
}

func NewMemoryAuditRepository(store *MemoryAssetStore) AuditRepositoryInterface {
	return &MemoryAuditRepository{store: store}
}

func (r *MemoryAuditRepository) Create(ctx context.Context, record *entities.AuditRecord) (string, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.MissingKeys == nil {
		record.MissingKeys = []string{}
	}

	cp := *record
	cp.MissingKeys = append([]string(nil), record.MissingKeys...)
	s.audits[record.ID] = &cp
	return record.ID, nil
}

func (r *MemoryAuditRepository) List(ctx context.Context, orgID string, limit, offset uint64) ([]entities.AuditRecord, uint64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.AuditRecord, 0)
	for _, rec := range s.audits {
		if rec.OrgID == orgID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := uint64(len(out))
	if offset >= total {
		return []entities.AuditRecord{}, total, nil
	}
	out = out[offset:]
	if limit > 0 && limit < uint64(len(out)) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *MemoryAuditRepository) Find(ctx context.Context, orgID, id string) (*entities.AuditRecord, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.audits[id]
	if !ok || rec.OrgID != orgID {
		return nil, apperrors.ErrAuditNotFound
	}
	cp := *rec
	return &cp, nil
}
