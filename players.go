package bedrockdb

import (
	"fmt"

	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/cqdetdev/bedrockdb/nbt"
)

// PlayerRecord is the stored data of one player.
type PlayerRecord struct {
	// Key is either a dbkey.Player or the dbkey.LocalPlayer named global.
	Key  dbkey.Key
	Data *nbt.Tag
}

// Players returns the local player, if any, followed by every player_*
// record in key order. Records that fail to decode are skipped.
func (db *DB) Players() ([]PlayerRecord, error) {
	if err := db.readable(); err != nil {
		return nil, err
	}
	var players []PlayerRecord

	local := dbkey.NamedGlobal{Name: dbkey.LocalPlayer}
	v, err := db.store.Get(local.Bytes())
	switch {
	case err == nil:
		if t, err := nbt.Unmarshal(v); err == nil {
			players = append(players, PlayerRecord{Key: local, Data: t})
		} else {
			db.log().Debug("skip player record", "key", dbkey.String(local), "err", err)
		}
	case !isNotFound(err):
		return nil, fmt.Errorf("players: %w", err)
	}

	it := db.store.NewIterator([]byte(dbkey.PlayerPrefix))
	defer it.Release()
	for it.Next() {
		k, ok := dbkey.Decode(it.Key()).(dbkey.Player)
		if !ok {
			continue
		}
		t, err := nbt.Unmarshal(it.Value())
		if err != nil {
			db.log().Debug("skip player record", "key", dbkey.String(k), "err", err)
			continue
		}
		players = append(players, PlayerRecord{Key: k, Data: t})
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("players: %w", err)
	}
	return players, nil
}
