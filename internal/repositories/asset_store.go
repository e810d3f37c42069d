package repositories

import (
	"context"
	"strings"
	"sync"

	"asset-system/internal/entities"
)

// AssetFilter — критерий выборки активов. OrgID обязателен всегда:
// скоупинг по организации передаётся явно, а не модульной константой.
type AssetFilter struct {
	OrgID  string
	Type   *entities.AssetType
	Status *entities.AssetStatus
}

func (f AssetFilter) Matches(a *entities.Asset) bool {
	if a.OrgID != f.OrgID {
		return false
	}
	if f.Type != nil && a.Type != *f.Type {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	return true
}

// TransitionRequest — атомарный переход машины состояний: условная
// проверка текущего статуса, применение полей и запись в журнал
// выполняются одной транзакцией. Условный апдейт закрывает окно
// между чтением и записью, когда два оператора сканируют одну бирку.
type TransitionRequest struct {
	AssetID  string
	Expected entities.AssetStatus
	Fields   map[string]interface{}
	Log      entities.LogEntry
}

// Поля документа, принимаемые Update/ApplyTransition. Ключи вида
// "metaData.<имя>" патчат отдельные поля метаданных, не затирая соседние.
const (
	FieldName           = "name"
	FieldArea           = "area"
	FieldStatus         = "status"
	FieldQRCode         = "qrCode"
	FieldTotalKeys      = "totalKeys"
	FieldType           = "type"
	FieldCheckedOutAt   = "checkedOutAt"
	FieldSearchKeywords = "searchKeywords"
	FieldMetaData       = "metaData"

	metaFieldPrefix = "metaData."
)

type AssetStoreInterface interface {
	List(ctx context.Context, filter AssetFilter) ([]entities.Asset, error)
	Find(ctx context.Context, orgID, id string) (*entities.Asset, error)
	Create(ctx context.Context, asset *entities.Asset) (string, error)
	Update(ctx context.Context, orgID, id string, fields map[string]interface{}) error
	ApplyTransition(ctx context.Context, orgID string, req TransitionRequest) (*entities.Asset, error)
	Delete(ctx context.Context, orgID, id string) error
	// BatchDelete удаляет документы последовательными батчами не больше
	// deleteBatchSize за транзакцию; возвращает число коммитов.
	BatchDelete(ctx context.Context, orgID string, ids []string) (int, error)
	DeleteAll(ctx context.Context, orgID string) (deleted int, batches int, err error)
	// Subscribe отдаёт канал, в который на каждое изменение коллекции
	// приходит полный актуальный срез по фильтру. Отписка — через ctx.
	Subscribe(ctx context.Context, filter AssetFilter) (<-chan []entities.Asset, error)
}

// AssetsChangedEvent публикуется в шину событий после каждой мутации.
type AssetsChangedEvent struct {
	OrgID string
}

func (e AssetsChangedEvent) Name() string { return "assets.changed" }

func isMetaField(key string) bool {
	return strings.HasPrefix(key, metaFieldPrefix)
}

func metaFieldName(key string) string {
	return strings.TrimPrefix(key, metaFieldPrefix)
}

// normalizeFieldValues рекурсивно заменяет нетипизированные nil внутри
// вложенных структур на явный null-эквивалент: хранилище не принимает
// "undefined" значений в документе.
func normalizeFieldValues(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case map[string]interface{}:
			out[k] = normalizeFieldValues(val)
		case entities.Metadata:
			out[k] = normalizeFieldValues(val)
		case nil:
			out[k] = nil
		default:
			out[k] = v
		}
	}
	return out
}

// subscriberSet — общая для всех реализаций хранилища механика подписок:
// на каждое изменение каждому подходящему подписчику перечитывается и
// отправляется полный срез.
type subscriberSet struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscriber
}

type subscriber struct {
	ctx    context.Context
	filter AssetFilter
	ch     chan []entities.Asset
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{subs: make(map[int]*subscriber)}
}

func (s *subscriberSet) add(ctx context.Context, filter AssetFilter) *subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &subscriber{ctx: ctx, filter: filter, ch: make(chan []entities.Asset, 8)}
	id := s.next
	s.next++
	s.subs[id] = sub

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}()

	return sub
}

// notify перечитывает срез для каждого подписчика организации.
// Медленный подписчик теряет промежуточные снимки, но не блокирует запись.
func (s *subscriberSet) notify(orgID string, list func(ctx context.Context, filter AssetFilter) ([]entities.Asset, error)) {
	s.mu.Lock()
	targets := make([]*subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.filter.OrgID == orgID {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range targets {
		go func(sub *subscriber) {
			snapshot, err := list(sub.ctx, sub.filter)
			if err != nil {
				return
			}
			select {
			case sub.ch <- snapshot:
			case <-sub.ctx.Done():
			default:
			}
		}(sub)
	}
}
