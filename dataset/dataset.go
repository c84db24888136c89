// Package dataset serves read-only lookups over the pre-scraped property
// dataset. The file is parsed once and queried in place with gjson.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Paths read from the dataset file. "urban-outout" is the key the dataset
// producer actually writes.
const (
	pathPropertyMap = "Datalink.property_id_map"
	pathOutput      = "output"
	pathRural       = "output.rural-output"
	pathUrban       = "output.urban-outout"
	pathInput       = "input"
)

// Record fields used by the filters.
const (
	keyDistrict    = "District"
	keyRegYear     = "Registration Year"
	keySRO         = "SRO"
	keyFirstParty  = "First Party Name"
	keySecondParty = "Second Party Name"
)

var (
	emptyObject = json.RawMessage(`{}`)
	emptyArray  = json.RawMessage(`[]`)
)

// Store holds the dataset document.
type Store struct {
	root gjson.Result
	path string
}

// Load reads and validates the dataset at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse builds a Store from an in-memory document. name is used in errors.
func Parse(data []byte, name string) (*Store, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("dataset: %s is not valid JSON", name)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("dataset: %s: top level must be an object", name)
	}
	return &Store{root: root, path: name}, nil
}

// Path returns the file the store was loaded from.
func (s *Store) Path() string { return s.path }

// Property returns the property_id_map entry for id.
func (s *Store) Property(id string) (json.RawMessage, bool) {
	return lookupKey(s.root.Get(pathPropertyMap), id)
}

// Datalink returns the whole property_id_map.
func (s *Store) Datalink() json.RawMessage {
	return rawOr(s.root.Get(pathPropertyMap), emptyObject)
}

// Input returns the dataset's input section.
func (s *Store) Input() json.RawMessage {
	return rawOr(s.root.Get(pathInput), emptyObject)
}

// Output returns the whole output section when category is empty, and the
// named category otherwise.
func (s *Store) Output(category string) (json.RawMessage, bool) {
	out := s.root.Get(pathOutput)
	if category == "" {
		return rawOr(out, emptyObject), true
	}
	return lookupKey(out, category)
}

// Rural lists rural records, restricted to district when it is non-empty.
func (s *Store) Rural(district string) json.RawMessage {
	return filter(s.root.Get(pathRural), func(item gjson.Result) bool {
		return district == "" || stringEquals(item.Get(keyDistrict), district)
	})
}

// Urban lists urban records, restricted to a registration year when year is
// non-zero.
func (s *Store) Urban(year int) json.RawMessage {
	return filter(s.root.Get(pathUrban), func(item gjson.Result) bool {
		return year == 0 || yearEquals(item.Get(keyRegYear), year)
	})
}

// UrbanQuery narrows SearchUrban. Zero-valued fields do not constrain.
type UrbanQuery struct {
	SRO       string
	Year      int
	PartyName string
}

// SearchUrban lists urban records matching every set field of q. The party
// name matches either the first or the second party.
func (s *Store) SearchUrban(q UrbanQuery) json.RawMessage {
	return filter(s.root.Get(pathUrban), func(item gjson.Result) bool {
		if q.SRO != "" && !stringEquals(item.Get(keySRO), q.SRO) {
			return false
		}
		if q.Year != 0 && !yearEquals(item.Get(keyRegYear), q.Year) {
			return false
		}
		if q.PartyName != "" &&
			!stringEquals(item.Get(keyFirstParty), q.PartyName) &&
			!stringEquals(item.Get(keySecondParty), q.PartyName) {
			return false
		}
		return true
	})
}

func lookupKey(obj gjson.Result, key string) (json.RawMessage, bool) {
	if !obj.IsObject() {
		return nil, false
	}
	var found gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found = v
			return false
		}
		return true
	})
	if !found.Exists() {
		return nil, false
	}
	return json.RawMessage(found.Raw), true
}

func filter(list gjson.Result, keep func(gjson.Result) bool) json.RawMessage {
	if !list.IsArray() {
		return emptyArray
	}
	var b strings.Builder
	b.WriteByte('[')
	n := 0
	list.ForEach(func(_, item gjson.Result) bool {
		if keep(item) {
			if n > 0 {
				b.WriteByte(',')
			}
			b.WriteString(item.Raw)
			n++
		}
		return true
	})
	b.WriteByte(']')
	return json.RawMessage(b.String())
}

func rawOr(r gjson.Result, def json.RawMessage) json.RawMessage {
	if !r.Exists() {
		return def
	}
	return json.RawMessage(r.Raw)
}

func stringEquals(r gjson.Result, want string) bool {
	return r.Type == gjson.String && r.Str == want
}

// yearEquals accepts the year stored either as a JSON number or as a
// numeric string.
func yearEquals(r gjson.Result, year int) bool {
	switch r.Type {
	case gjson.Number:
		return r.Num == float64(year)
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(r.Str))
		return err == nil && n == year
	}
	return false
}
