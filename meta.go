package bedrockdb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cqdetdev/bedrockdb/compress"
	"github.com/cqdetdev/bedrockdb/nbt"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/mcdb/leveldat"
)

// Meta is the level.dat of a world as a generic NBT document. The accessors
// report false when a field is missing or has an unexpected type.
type Meta struct {
	*nbt.File
}

// LevelName returns the display name of the world.
func (m Meta) LevelName() (string, bool) {
	return m.Root.Get("LevelName").Text()
}

// GameType returns the default game mode id.
func (m Meta) GameType() (int32, bool) {
	return m.int32("GameType")
}

// Difficulty returns the difficulty id.
func (m Meta) Difficulty() (int32, bool) {
	return m.int32("Difficulty")
}

// LastPlayed returns the time the world was last saved.
func (m Meta) LastPlayed() (time.Time, bool) {
	v, ok := m.Root.Get("LastPlayed").Int()
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(v, 0), true
}

// RandomSeed returns the world seed.
func (m Meta) RandomSeed() (int64, bool) {
	return m.Root.Get("RandomSeed").Int()
}

// LastOpenedWithVersion returns the game version that last opened the world,
// such as "1.21.50.7".
func (m Meta) LastOpenedWithVersion() (string, bool) {
	t := m.Root.Get("lastOpenedWithVersion")
	if t.Type() != nbt.TypeList || t.ElemType() != nbt.TypeInt {
		return "", false
	}
	parts := make([]string, 0, t.Len())
	for _, c := range t.Children() {
		v, _ := c.Int()
		parts = append(parts, strconv.FormatInt(v, 10))
	}
	return strings.Join(parts, "."), true
}

func (m Meta) int32(name string) (int32, bool) {
	v, ok := m.Root.Get(name).Int()
	return int32(v), ok
}

// Meta reads the level.dat of the world.
func (db *DB) Meta() (Meta, error) {
	if err := db.levelDat(false); err != nil {
		return Meta{}, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	f, err := nbt.ReadFile(levelDatPath(db.dir))
	if err != nil {
		return Meta{}, fmt.Errorf("meta: %w", err)
	}
	return Meta{File: f}, nil
}

// SaveMeta writes m to the level.dat of the world with its original
// compression, and updates levelname.txt.
func (db *DB) SaveMeta(m Meta) error {
	if err := db.levelDat(true); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := m.WriteFile(levelDatPath(db.dir), compress.Auto); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if name, ok := m.LevelName(); ok {
		if err := os.WriteFile(levelNamePath(db.dir), []byte(name), 0644); err != nil {
			return fmt.Errorf("save meta: write levelname.txt: %w", err)
		}
	}
	return nil
}

// Settings reads the level.dat of the world into world settings. A world
// without a level.dat gets the default settings.
func (db *DB) Settings() (*world.Settings, error) {
	if err := db.levelDat(false); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	data, err := db.readLevelDat()
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return data.Settings(), nil
}

// SaveSettings stores s in the level.dat of the world, keeping the fields
// world settings do not cover.
func (db *DB) SaveSettings(s *world.Settings) error {
	if err := db.levelDat(true); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	data, err := db.readLevelDat()
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	data.PutSettings(s)
	data.LastPlayed = time.Now().Unix()

	var ldat leveldat.LevelDat
	if err := ldat.Marshal(*data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := ldat.WriteFile(levelDatPath(db.dir)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := os.WriteFile(levelNamePath(db.dir), []byte(data.LevelName), 0644); err != nil {
		return fmt.Errorf("save settings: write levelname.txt: %w", err)
	}
	return nil
}

// readLevelDat reads level.dat into the typed view. db.mu must be held.
func (db *DB) readLevelDat() (*leveldat.Data, error) {
	data := &leveldat.Data{}
	path := levelDatPath(db.dir)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		data.FillDefault()
		return data, nil
	}
	ldat, err := leveldat.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level.dat: %w", err)
	}
	if ver := ldat.Ver(); ver != leveldat.Version && ver >= 10 {
		return nil, fmt.Errorf("level.dat version %v is unsupported", ver)
	}
	if err := ldat.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("unmarshal level.dat: %w", err)
	}
	return data, nil
}

// levelDat checks that level.dat operations are possible.
func (db *DB) levelDat(write bool) error {
	var err error
	if write {
		err = db.writable()
	} else {
		err = db.readable()
	}
	if err != nil {
		return err
	}
	if db.dir == "" {
		return ErrNoDir
	}
	return nil
}
