package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// Offline keyspace dump for a chat-hub BadgerDB. Values are JSON documents,
// so each prefix gets a small decoder that extracts the columns worth
// reading at a glance.

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, user:, conv:, freq:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Entity ID", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// The useridx: prefix holds plain username values, not JSON
			if strings.HasPrefix(key, "useridx:") {
				err := item.Value(func(v []byte) error {
					table.Append([]string{key, "INDEX", "", strings.TrimPrefix(key, "useridx:"), string(v)})
					return nil
				})
				if err != nil {
					return err
				}
				continue
			}

			err := item.Value(func(v []byte) error {
				row, err := decode(key, v)
				if err != nil {
					// Log and keep scanning rather than aborting the whole dump
					fmt.Printf("Error decoding key %s: %v\n", key, err)
					return nil
				}
				table.Append(row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func decode(key string, value []byte) ([]string, error) {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var doc struct {
			ID        string    `json:"id"`
			Sender    string    `json:"sender"`
			Content   string    `json:"content"`
			At        time.Time `json:"at"`
		}
		if err := json.Unmarshal(value, &doc); err != nil {
			return nil, err
		}
		return []string{key, "MESSAGE", doc.At.Format("15:04:05"), shorten(doc.ID), fmt.Sprintf("%s: %s", doc.Sender, doc.Content)}, nil

	case strings.HasPrefix(key, "user:"):
		var doc struct {
			ID        string    `json:"id"`
			Name      string    `json:"name"`
			Username  string    `json:"username"`
			CreatedAt time.Time `json:"created_at"`
		}
		if err := json.Unmarshal(value, &doc); err != nil {
			return nil, err
		}
		return []string{key, "USER", doc.CreatedAt.Format("2006-01-02"), shorten(doc.ID), fmt.Sprintf("%s (@%s)", doc.Name, doc.Username)}, nil

	case strings.HasPrefix(key, "conv:"):
		var doc struct {
			ID        string    `json:"id"`
			Name      string    `json:"name"`
			GroupChat bool      `json:"group_chat"`
			Members   []string  `json:"members"`
			CreatedAt time.Time `json:"created_at"`
		}
		if err := json.Unmarshal(value, &doc); err != nil {
			return nil, err
		}
		kind := "DIRECT"
		if doc.GroupChat {
			kind = "GROUP"
		}
		return []string{key, kind, doc.CreatedAt.Format("2006-01-02"), shorten(doc.ID), fmt.Sprintf("%s [%d members]", doc.Name, len(doc.Members))}, nil

	case strings.HasPrefix(key, "freq:"):
		var doc struct {
			ID        string    `json:"id"`
			Status    string    `json:"status"`
			Sender    string    `json:"sender"`
			Receiver  string    `json:"receiver"`
			CreatedAt time.Time `json:"created_at"`
		}
		if err := json.Unmarshal(value, &doc); err != nil {
			return nil, err
		}
		return []string{key, "REQUEST", doc.CreatedAt.Format("2006-01-02"), shorten(doc.ID), fmt.Sprintf("%s -> %s (%s)", doc.Sender, doc.Receiver, doc.Status)}, nil
	}

	return []string{key, "RAW", "", "", string(value)}, nil
}

// shorten keeps the first 8 characters of an id for readability.
func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
