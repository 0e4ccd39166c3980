package db

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a record id has no row in its table.
var ErrNotFound = errors.New("record not found")

// Store is a badger-backed record store. Records live under "<table>/<id>"
// keys; secondary indexes under "idx/<table>/<field>/<value>/<id>". Writers
// declare the tables they touch and the store serializes transactions whose
// table sets overlap, so a transaction never observes another writer's
// half-applied changes.
type Store struct {
	db *badger.DB

	mu     sync.Mutex
	tables map[string]*sync.Mutex
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(dataDir, "badger"))
	opts.Logger = nil

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Store{db: bdb, tables: make(map[string]*sync.Mutex)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) tableLock(table string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.tables[table]
	if !ok {
		l = &sync.Mutex{}
		s.tables[table] = l
	}
	return l
}

// lockTables acquires the locks for a table set in sorted order and returns
// the matching unlock. Sorted acquisition keeps overlapping transactions
// from deadlocking against each other.
func (s *Store) lockTables(tables []string) func() {
	names := append([]string(nil), tables...)
	sort.Strings(names)

	locks := make([]*sync.Mutex, 0, len(names))
	for i, name := range names {
		if i > 0 && name == names[i-1] {
			continue
		}
		l := s.tableLock(name)
		l.Lock()
		locks = append(locks, l)
	}

	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// Update runs fn inside one write transaction against the declared tables.
// Either every write in fn becomes visible or none does: an error from fn
// discards the transaction.
func (s *Store) Update(tables []string, fn func(tx *Tx) error) error {
	unlock := s.lockTables(tables)
	defer unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

// View runs fn against a read-only snapshot. Readers never block writers.
func (s *Store) View(fn func(tx *Tx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

// Tx is the unit of work handed to Update and View callbacks.
type Tx struct {
	txn *badger.Txn
}

func recordKey(table, id string) []byte {
	return []byte(table + "/" + id)
}

func indexKey(table, field, value, id string) []byte {
	return []byte("idx/" + table + "/" + field + "/" + escapeIndexValue(value) + "/" + id)
}

// escapeIndexValue keeps arbitrary field values from colliding with the
// '/' separators of index keys: a value like "a/b" must not satisfy prefix
// lookups for "a". Path escaping leaves digits alone, so zero-padded
// numeric values still scan in numeric order.
func escapeIndexValue(value string) string {
	return url.PathEscape(value)
}

func (t *Tx) Get(table, id string) ([]byte, error) {
	item, err := t.txn.Get(recordKey(table, id))
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("%s/%s: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var value []byte
	err = item.Value(func(val []byte) error {
		value = append([]byte{}, val...)
		return nil
	})
	return value, err
}

func (t *Tx) Set(table, id string, value []byte) error {
	return t.txn.Set(recordKey(table, id), value)
}

func (t *Tx) Delete(table, id string) error {
	return t.txn.Delete(recordKey(table, id))
}

// Scan visits every record in a table in key order.
func (t *Tx) Scan(table string, fn func(id string, value []byte) error) error {
	prefix := []byte(table + "/")

	it := t.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		id := string(item.Key())[len(prefix):]
		if id == "" {
			continue
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(id, value); err != nil {
			return err
		}
	}
	return nil
}

// SetIndex records id under a secondary index entry.
func (t *Tx) SetIndex(table, field, value, id string) error {
	return t.txn.Set(indexKey(table, field, value, id), nil)
}

func (t *Tx) DeleteIndex(table, field, value, id string) error {
	return t.txn.Delete(indexKey(table, field, value, id))
}

// IndexLookup returns the ids filed under an exact index value.
func (t *Tx) IndexLookup(table, field, value string) ([]string, error) {
	return t.indexScan("idx/" + table + "/" + field + "/" + escapeIndexValue(value) + "/")
}

// IndexScan returns the ids for every value of an index field, in value
// order. Callers that zero-pad numeric values get them back numerically
// sorted.
func (t *Tx) IndexScan(table, field string) ([]string, error) {
	return t.indexScan("idx/" + table + "/" + field + "/")
}

func (t *Tx) indexScan(prefix string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false

	it := t.txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		key := string(it.Item().Key())
		// the id is the final path segment; ids never contain '/'
		i := len(key) - 1
		for i >= 0 && key[i] != '/' {
			i--
		}
		ids = append(ids, key[i+1:])
	}
	return ids, nil
}
