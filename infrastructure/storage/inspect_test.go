package storage

import (
	"chat-relay/domain/chat"
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestInspectMapper(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	directory := newDirectory(t)

	// Given one record of each kind
	_, err := directory.CreateUser(ctx, "alice", "$argon2id$hash", []string{"user"})
	req.NoError(err)
	req.NoError(directory.Block(ctx, "bob", "alice"))
	req.NoError(directory.RecordReport(ctx, chat.NewReport("bob", "alice", "spam", nil)))

	// When every key goes through the mapper
	details := map[string]string{}
	req.NoError(directory.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			row := InspectMapper(string(it.Item().Key()), val)
			details[row.Type] = row.Detail
		}
		return nil
	}))

	// Then each kind is rendered readably
	req.Equal("alice [user]", details["USER"])
	req.Contains(details["BLOCK"], "since ")
	req.Equal("bob reported alice: spam", details["REPORT"])

	// And garbage does not break the inspector
	req.Equal("Error: unmarshal failed", InspectMapper("user:x", []byte{0xff, 0xff}).Detail)
}
