package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	roomPrefix       = "room:"
	permitPrefix     = "permit:"
	permitCodePrefix = "permit-code:"
	permitSeqKey     = "seq:permit"
	conflictRetries  = 8
)

// Badger is the embedded store. Values are msgpack encoded.
type Badger struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenBadger opens (or creates) the database at path. An empty path keeps it in memory.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %q: %w", path, err)
	}
	seq, err := db.GetSequence([]byte(permitSeqKey), 16)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("permit sequence: %w", err)
	}
	return &Badger{db: db, seq: seq}, nil
}

func roomKey(id domain.RoomID) []byte     { return []byte(roomPrefix + id.String()) }
func permitKey(id domain.PermitID) []byte { return []byte(permitPrefix + strconv.FormatInt(int64(id), 10)) }
func permitCodeKey(code string) []byte    { return []byte(permitCodePrefix + code) }

func getValue[T any](txn *badger.Txn, key []byte, notFound error) (T, error) {
	var v T
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return v, notFound
	}
	if err != nil {
		return v, err
	}
	err = item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, &v)
	})
	return v, err
}

func setValue(txn *badger.Txn, key []byte, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(key, data)
}

// update retries fn when a concurrent transaction touched the same keys.
func (b *Badger) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range conflictRetries {
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (b *Badger) FindRoom(_ context.Context, id domain.RoomID) (domain.RoomRecord, error) {
	var rec domain.RoomRecord
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getValue[domain.RoomRecord](txn, roomKey(id), domain.ErrRoomNotFound)
		return err
	})
	return rec, err
}

func (b *Badger) UpsertRoom(_ context.Context, rec domain.RoomRecord) error {
	return b.update(func(txn *badger.Txn) error {
		return setValue(txn, roomKey(rec.ID), rec)
	})
}

func (b *Badger) DeleteRoom(_ context.Context, id domain.RoomID) error {
	return b.update(func(txn *badger.Txn) error {
		if _, err := txn.Get(roomKey(id)); errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrRoomNotFound
		}
		return txn.Delete(roomKey(id))
	})
}

func (b *Badger) ListRooms(_ context.Context) ([]domain.RoomRecord, error) {
	var out []domain.RoomRecord
	err := b.db.View(func(txn *badger.Txn) error {
		return eachRoom(txn, func(rec domain.RoomRecord) error {
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}

func eachRoom(txn *badger.Txn, fn func(domain.RoomRecord) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := []byte(roomPrefix)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var rec domain.RoomRecord
		if err := it.Item().Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (b *Badger) DeleteRoomsNotIn(_ context.Context, active []domain.RoomID, olderThan time.Time) (int, error) {
	keep := lo.SliceToMap(active, func(id domain.RoomID) (domain.RoomID, struct{}) { return id, struct{}{} })
	var stale []domain.RoomID
	err := b.db.View(func(txn *badger.Txn) error {
		return eachRoom(txn, func(rec domain.RoomRecord) error {
			if _, ok := keep[rec.ID]; !ok && rec.CreatedAt.Before(olderThan) {
				stale = append(stale, rec.ID)
			}
			return nil
		})
	})
	if err != nil || len(stale) == 0 {
		return 0, err
	}
	err = b.update(func(txn *badger.Txn) error {
		for _, id := range stale {
			if err := txn.Delete(roomKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(stale), nil
}

func (b *Badger) SavePermit(_ context.Context, p domain.Permit) (domain.Permit, error) {
	p.Code = strings.TrimSpace(p.Code)
	if p.ID == 0 {
		n, err := b.seq.Next()
		if err != nil {
			return domain.Permit{}, fmt.Errorf("next permit id: %w", err)
		}
		p.ID = domain.PermitID(n + 1)
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	err := b.update(func(txn *badger.Txn) error {
		if prev, err := getValue[domain.Permit](txn, permitKey(p.ID), domain.ErrPermitNotFound); err == nil && prev.Code != p.Code {
			if err := txn.Delete(permitCodeKey(prev.Code)); err != nil {
				return err
			}
		}
		if err := setValue(txn, permitKey(p.ID), p); err != nil {
			return err
		}
		return setValue(txn, permitCodeKey(p.Code), p.ID)
	})
	return p, err
}

func (b *Badger) FindPermit(_ context.Context, id domain.PermitID) (domain.Permit, error) {
	var p domain.Permit
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = getValue[domain.Permit](txn, permitKey(id), domain.ErrPermitNotFound)
		return err
	})
	return p, err
}

func (b *Badger) FindPermitByCode(_ context.Context, code string) (domain.Permit, error) {
	var p domain.Permit
	err := b.db.View(func(txn *badger.Txn) error {
		id, err := getValue[domain.PermitID](txn, permitCodeKey(code), domain.ErrPermitNotFound)
		if err != nil {
			return err
		}
		p, err = getValue[domain.Permit](txn, permitKey(id), domain.ErrPermitNotFound)
		return err
	})
	return p, err
}

// CommitUsage increments usage inside one transaction; conflicting commits are retried
// and re-read the current count.
func (b *Badger) CommitUsage(_ context.Context, id domain.PermitID) (int, bool, error) {
	var (
		used      int
		committed bool
	)
	err := b.update(func(txn *badger.Txn) error {
		committed = false
		p, err := getValue[domain.Permit](txn, permitKey(id), domain.ErrPermitNotFound)
		if err != nil {
			return err
		}
		used = p.Used
		if p.Disabled || p.Used >= p.Total {
			return nil
		}
		p.Used++
		p.UpdatedAt = time.Now().UTC()
		if err := setValue(txn, permitKey(id), p); err != nil {
			return err
		}
		used, committed = p.Used, true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return used, committed, nil
}

func (b *Badger) DisablePermit(_ context.Context, id domain.PermitID) error {
	return b.update(func(txn *badger.Txn) error {
		p, err := getValue[domain.Permit](txn, permitKey(id), domain.ErrPermitNotFound)
		if err != nil {
			return err
		}
		p.Disabled = true
		p.UpdatedAt = time.Now().UTC()
		return setValue(txn, permitKey(id), p)
	})
}

func (b *Badger) Close() error {
	if err := b.seq.Release(); err != nil {
		log.Warn().Str("module", "store.badger").Err(err).Msg("release sequence")
	}
	return b.db.Close()
}
