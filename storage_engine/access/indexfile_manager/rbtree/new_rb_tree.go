package rbtree

import (
	"encoding/binary"

	diskmanager "ArenaDB/storage_engine/disk_manager"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ArenaConfig is the storage manager configuration of an index arena at path.
func ArenaConfig(path string) diskmanager.Config {
	return diskmanager.Config{
		Path:      path,
		Magic:     types.MagicIndex,
		BlockType: types.BlockTypeRBNode,
		BlockSize: NodeSize,
		MetaSize:  MetaSize,
		Flags:     diskmanager.FlagNoAlloc,
	}
}

func (o Options) arenaConfig() diskmanager.Config {
	cfg := ArenaConfig(o.Path)
	cfg.InitialCapacity = o.InitialCapacity
	cfg.Limit = o.MaxCapacity
	cfg.Backend = o.Backend
	cfg.Logger = o.Logger
	return cfg
}

func (o Options) validate() error {
	switch {
	case len(o.Fields) == 0:
		return errors.Newf("index %s: empty field list", o.Name)
	case o.Rows == nil:
		return errors.Newf("index %s: no row source", o.Name)
	case o.Comparator == nil:
		return errors.Newf("index %s: no comparator", o.Name)
	}
	return nil
}

// Create builds an empty index, discarding any previous contents at the path.
func Create(opts Options) (*Tree, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	stg, err := diskmanager.Create(opts.arenaConfig())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create index %s", opts.Name)
	}
	t := newTree(opts, stg)
	t.logger.Debug("index created", zap.String("path", opts.Path), zap.Bool("unique", opts.Unique))
	return t, nil
}

// Open attaches to an existing index and keeps its contents.
func Open(opts Options) (*Tree, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	stg, err := diskmanager.Open(opts.arenaConfig())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open index %s", opts.Name)
	}
	t := newTree(opts, stg)
	t.queries.Store(binary.LittleEndian.Uint64(t.meta()[metaQueries:]))
	t.logger.Debug("index opened",
		zap.String("path", opts.Path),
		zap.Uint32("rows", t.RowCount()),
		zap.Uint32("nodes", t.NodeCount()))
	return t, nil
}

func newTree(opts Options, stg *diskmanager.Manager) *Tree {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fields := make([]int, len(opts.Fields))
	copy(fields, opts.Fields)
	return &Tree{
		name:   opts.Name,
		fields: fields,
		unique: opts.Unique,
		stg:    stg,
		rows:   opts.Rows,
		cmp:    opts.Comparator,
		logger: logger.With(zap.String("index", opts.Name)),
	}
}

func (t *Tree) flushQueries() {
	binary.LittleEndian.PutUint64(t.meta()[metaQueries:], t.queries.Load())
}

// Sync writes the header and all nodes to the backing storage.
func (t *Tree) Sync() error {
	t.flushQueries()
	if err := t.stg.Sync(false); err != nil {
		return errors.Wrapf(err, "index %s", t.name)
	}
	return nil
}

func (t *Tree) Close() error {
	t.flushQueries()
	if err := t.stg.Close(); err != nil {
		return errors.Wrapf(err, "index %s", t.name)
	}
	t.logger.Debug("index closed")
	return nil
}

// Drop closes the index and removes its storage.
func (t *Tree) Drop() error {
	if err := t.stg.Drop(); err != nil {
		return errors.Wrapf(err, "index %s", t.name)
	}
	t.logger.Debug("index dropped")
	return nil
}

// Reset empties the index in place: header counters, root and every slot.
func (t *Tree) Reset() {
	clear(t.meta())
	for id := types.RowID(0); id <= t.stg.Capacity(); id++ {
		t.node(id).reset()
	}
	t.queries.Store(0)
}
