// Package schedule models the site's half-hour programme grid: keys derived
// from wall-clock time, a table filled from scraped declarations, and the
// lookup that falls back to the preceding block.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// BlockSeconds is the length of one schedule block.
const BlockSeconds = 1800

type Block string

const (
	FirstHalf  Block = "b1"
	SecondHalf Block = "b2"
)

var weekdays = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// Key identifies one half-hour block of the week, e.g. mon_14_b1.
type Key struct {
	Weekday string
	Hour    int
	Block   Block
}

func (k Key) String() string {
	return fmt.Sprintf("%s_%02d_%s", k.Weekday, k.Hour, k.Block)
}

// ParseKey parses a declaration name such as "Mon_14_B2".
func ParseKey(name string) (Key, bool) {
	parts := strings.Split(strings.ToLower(name), "_")
	if len(parts) != 3 {
		return Key{}, false
	}

	valid := false
	for _, wd := range weekdays {
		if parts[0] == wd {
			valid = true
			break
		}
	}
	if !valid {
		return Key{}, false
	}

	if len(parts[1]) != 2 || parts[1][0] < '0' || parts[1][0] > '9' || parts[1][1] < '0' || parts[1][1] > '9' {
		return Key{}, false
	}
	hour := int(parts[1][0]-'0')*10 + int(parts[1][1]-'0')

	block := Block(parts[2])
	if block != FirstHalf && block != SecondHalf {
		return Key{}, false
	}

	return Key{Weekday: parts[0], Hour: hour, Block: block}, true
}

type Entry struct {
	File string
}

// Table maps schedule keys to entries. Later writes for a key win.
type Table map[Key]Entry

func (t Table) Set(k Key, e Entry) {
	t[k] = e
}

// Merge copies every entry of other into t, overwriting existing keys.
func (t Table) Merge(other Table) {
	for k, e := range other {
		t[k] = e
	}
}

// Slot is the schedule position of a wall-clock instant.
type Slot struct {
	Key Key
	// Previous is the same hour's first block when Key is a second block.
	Previous *Key
	// Offset is the number of seconds elapsed in Key's block.
	Offset int
}

// SlotAt computes the slot for t in t's own location.
func SlotAt(t time.Time) Slot {
	wd := weekdays[t.Weekday()]
	elapsed := t.Minute()*60 + t.Second()

	if t.Minute() < 30 {
		return Slot{
			Key:    Key{Weekday: wd, Hour: t.Hour(), Block: FirstHalf},
			Offset: elapsed,
		}
	}

	prev := Key{Weekday: wd, Hour: t.Hour(), Block: FirstHalf}
	return Slot{
		Key:      Key{Weekday: wd, Hour: t.Hour(), Block: SecondHalf},
		Previous: &prev,
		Offset:   elapsed - BlockSeconds,
	}
}

// Match is a scheduled file together with the playback position into it.
type Match struct {
	Key          Key
	File         string
	Offset       int
	FromPrevious bool
}

// Lookup finds the entry for slot. When the slot's own block has no file it
// falls back to the preceding block of the same hour, treating both blocks as
// one programme, so the offset grows by a full block.
func (t Table) Lookup(slot Slot) (Match, bool) {
	if e, ok := t[slot.Key]; ok && e.File != "" {
		return Match{Key: slot.Key, File: e.File, Offset: slot.Offset}, true
	}

	if slot.Previous != nil {
		if e, ok := t[*slot.Previous]; ok && e.File != "" {
			return Match{
				Key:          *slot.Previous,
				File:         e.File,
				Offset:       slot.Offset + BlockSeconds,
				FromPrevious: true,
			}, true
		}
	}

	return Match{}, false
}

// SecondsIntoHalfHour is the playback offset used when no schedule entry
// applies.
func SecondsIntoHalfHour(t time.Time) int {
	return (t.Minute()%30)*60 + t.Second()
}
