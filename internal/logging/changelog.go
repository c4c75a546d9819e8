package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vnxcius/aternos-bot/internal/monitor"
)

type StatusChangeType string

const (
	ServerCameOnline  StatusChangeType = "online"
	ServerWentOffline StatusChangeType = "offline"
)

type StatusChangeEntry struct {
	Time     string           `json:"time"`
	Type     StatusChangeType `json:"type"`
	ServerID string           `json:"server_id"`
	Name     string           `json:"name"`
	Players  int              `json:"players"`
}

// StatusChangelog appends one JSON line per status transition to a file per day.
type StatusChangelog struct {
	file *DailyFile
	dir  string
	loc  *time.Location
}

func NewStatusChangelog(dir string, loc *time.Location) (*StatusChangelog, error) {
	file, err := NewDailyFile(dir, loc)
	if err != nil {
		return nil, err
	}
	return &StatusChangelog{file: file, dir: dir, loc: file.loc}, nil
}

func (c *StatusChangelog) RecordTransition(_ context.Context, t monitor.Transition) error {
	changeType := ServerWentOffline
	if t.Online {
		changeType = ServerCameOnline
	}

	entry := StatusChangeEntry{
		Time:     t.At.In(c.loc).Format(time.RFC3339),
		Type:     changeType,
		ServerID: t.Server.ID,
		Name:     t.Server.Name,
		Players:  t.Server.Players,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal changelog entry: %w", err)
	}
	_, err = c.file.Write(append(data, '\n'))
	return err
}

// Entries reads every changelog file in date order. Lines that fail to
// decode are skipped.
func (c *StatusChangelog) Entries() ([]StatusChangeEntry, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read changelog dir: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name() < files[j].Name()
	})

	entries := []StatusChangeEntry{}
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".log") {
			continue
		}

		f, err := os.Open(filepath.Join(c.dir, file.Name()))
		if err != nil {
			continue
		}

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var entry StatusChangeEntry
			if err := json.Unmarshal(scanner.Bytes(), &entry); err == nil {
				entries = append(entries, entry)
			}
		}
		f.Close()
	}

	return entries, nil
}

func (c *StatusChangelog) Close() error {
	return c.file.Close()
}
