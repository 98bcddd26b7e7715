package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
)

// StateRoot builds a Merkle-Patricia trie over every committed state record
// and returns its root hash. Staged, uncommitted writes are not included. The
// empty state hashes to the canonical empty root.
func (m *Manager) StateRoot() (common.Hash, error) {
	backend := memorydb.New()
	db := rawdb.NewDatabase(backend)
	trieDB := triedb.NewDatabase(db, triedb.HashDefaults)
	trie, err := gethtrie.New(gethtrie.TrieID(gethtypes.EmptyRootHash), trieDB)
	if err != nil {
		return common.Hash{}, err
	}
	var updateErr error
	iterErr := m.db.Iterate(stateKeyPrefix, func(key, value []byte) bool {
		if err := trie.Update(key[len(stateKeyPrefix):], value); err != nil {
			updateErr = err
			return false
		}
		return true
	})
	if iterErr != nil {
		return common.Hash{}, iterErr
	}
	if updateErr != nil {
		return common.Hash{}, updateErr
	}
	return trie.Hash(), nil
}
