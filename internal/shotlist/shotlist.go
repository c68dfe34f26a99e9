package shotlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"renderq/internal/services"
)

const component = "shotlist"

// ShotKey identifies a shot record. ID is the string form of the JSON id so
// numeric and string ids compare equal ("7" == 7).
type ShotKey struct {
	Category string
	ID       string
}

func (k ShotKey) String() string {
	return k.Category + "/" + k.ID
}

// Record is one raw entry of the shots array.
type Record struct {
	Key    ShotKey
	Parent *ShotKey
	Fields map[string]any
}

// DB is an immutable, parsed shot list.
type DB struct {
	path        string
	projectRoot string
	renderRoot  string
	records     []Record
}

// Load reads and parses the shot list at path. Every failure is an ErrLoad.
func Load(path string) (*DB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrLoad, component, "read", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a shot list document. path is used only for error messages.
func Parse(data []byte, path string) (*DB, error) {
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, services.Wrap(services.ErrLoad, component, "parse", path, err)
	}
	if doc == nil {
		return nil, services.Wrap(services.ErrLoad, component, "parse", path+": document is not an object", nil)
	}

	projectRoot, err := requireString(doc, "project_root", path)
	if err != nil {
		return nil, err
	}
	renderRoot, err := requireString(doc, "render_root", path)
	if err != nil {
		return nil, err
	}

	rawShots, ok := doc["shots"]
	if !ok {
		return nil, services.Wrap(services.ErrLoad, component, "parse", fmt.Sprintf("%s: missing %q key", path, "shots"), nil)
	}
	list, ok := rawShots.([]any)
	if !ok {
		return nil, services.Wrap(services.ErrLoad, component, "parse", path+": shots must be an array", nil)
	}

	records := make([]Record, 0, len(list))
	for idx, raw := range list {
		rec, err := parseRecord(raw)
		if err != nil {
			return nil, services.Wrap(services.ErrLoad, component, "parse", fmt.Sprintf("%s: shots[%d]", path, idx), err)
		}
		records = append(records, rec)
	}

	return &DB{
		path:        path,
		projectRoot: projectRoot,
		renderRoot:  renderRoot,
		records:     records,
	}, nil
}

func requireString(doc map[string]any, key, path string) (string, error) {
	raw, ok := doc[key]
	if !ok {
		return "", services.Wrap(services.ErrLoad, component, "parse", fmt.Sprintf("%s: missing %q key", path, key), nil)
	}
	value, ok := raw.(string)
	if !ok {
		return "", services.Wrap(services.ErrLoad, component, "parse", fmt.Sprintf("%s: %q must be a string", path, key), nil)
	}
	return value, nil
}

func parseRecord(raw any) (Record, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return Record{}, fmt.Errorf("shot entry must be an object")
	}
	category, ok := fields["category"].(string)
	if !ok || category == "" {
		return Record{}, fmt.Errorf("shot entry requires a string category")
	}
	rawID, ok := fields["id"]
	if !ok || rawID == nil {
		return Record{}, fmt.Errorf("shot %s requires an id", category)
	}
	rec := Record{
		Key:    ShotKey{Category: category, ID: IDString(rawID)},
		Fields: fields,
	}
	if rawParent, ok := fields["parent"]; ok && rawParent != nil {
		pair, ok := rawParent.([]any)
		if !ok || len(pair) != 2 {
			return Record{}, fmt.Errorf("shot %s: parent must be [category, id]", rec.Key)
		}
		parentCategory, ok := pair[0].(string)
		if !ok {
			return Record{}, fmt.Errorf("shot %s: parent category must be a string", rec.Key)
		}
		rec.Parent = &ShotKey{Category: parentCategory, ID: IDString(pair[1])}
	}
	return rec, nil
}

// IDString normalizes a JSON shot id to the form used for comparison.
func IDString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return fmt.Sprint(v)
	}
}

// Path returns the file the DB was loaded from.
func (db *DB) Path() string { return db.path }

// ProjectRoot returns project_root as written in the document.
func (db *DB) ProjectRoot() string { return db.projectRoot }

// RenderRoot returns render_root with the "//" shortcut resolved.
func (db *DB) RenderRoot() string {
	return ResolveProjectPath(db.projectRoot, db.renderRoot)
}

// ShotIDs lists every shot in document order.
func (db *DB) ShotIDs() []ShotKey {
	keys := make([]ShotKey, 0, len(db.records))
	for _, rec := range db.records {
		keys = append(keys, rec.Key)
	}
	return keys
}

// Record returns the raw, unmerged entry for key.
func (db *DB) Record(key ShotKey) (Record, bool) {
	rec := db.find(key)
	if rec == nil {
		return Record{}, false
	}
	return *rec, true
}

// Len reports the number of shot records.
func (db *DB) Len() int { return len(db.records) }

func (db *DB) find(key ShotKey) *Record {
	for i := range db.records {
		if db.records[i].Key == key {
			return &db.records[i]
		}
	}
	return nil
}

// ResolveProjectPath joins a "//"-prefixed value onto root. Other values are
// returned unchanged.
func ResolveProjectPath(root, value string) string {
	rest, ok := strings.CutPrefix(value, "//")
	if !ok {
		return value
	}
	if root == "" {
		return rest
	}
	return joinPath(root, rest)
}

// joinPath concatenates with a single separator and keeps the root's own
// separator style so Windows-style roots survive on any host.
func joinPath(root, rest string) string {
	sep := "/"
	if strings.Contains(root, `\`) && !strings.Contains(root, "/") {
		sep = `\`
	}
	if strings.HasSuffix(root, "/") || strings.HasSuffix(root, `\`) {
		return root + rest
	}
	return root + sep + rest
}
