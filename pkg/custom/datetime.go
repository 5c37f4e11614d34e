package custom

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Datetime is a UTC timestamp that is stored as RFC3339 text in every backend.
type Datetime time.Time

// Now returns the current time truncated to the second, so it survives a round trip through any store.
func Now() Datetime {
	return Datetime(time.Now().UTC().Truncate(time.Second))
}

// Time returns the underlying time.
func (d Datetime) Time() time.Time {
	return time.Time(d)
}

// MarshalJSON implements the json.Marshaler interface.
func (d Datetime) MarshalJSON() ([]byte, error) {
	if time.Time(d).IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf(`%q`, d.String())), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Datetime) UnmarshalJSON(text []byte) error {
	s := strings.Trim(string(text), `"`)
	if s == "" || s == "null" {
		*d = Datetime{}
		return nil
	}
	return d.parse(s)
}

// MarshalBSONValue implements the bson.ValueMarshaler interface.
func (d Datetime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if time.Time(d).IsZero() {
		return bson.TypeNull, nil, nil
	}
	return bson.MarshalValue(d.String())
}

// UnmarshalBSONValue implements the bson.ValueUnmarshaler interface.
func (d *Datetime) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeNull:
		*d = Datetime{}
		return nil
	case bson.TypeString:
		return d.parse(rv.StringValue())
	case bson.TypeDateTime:
		*d = Datetime(rv.Time().UTC())
		return nil
	default:
		return fmt.Errorf("invalid bson type %s for datetime", t)
	}
}

// Scan implements the sql.Scanner interface.
func (d *Datetime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Datetime{}
		return nil
	case time.Time:
		*d = Datetime(v.UTC())
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("invalid scan, type %T not supported for %T", src, d)
	}
}

// Value implements the driver.Valuer interface.
func (d Datetime) Value() (driver.Value, error) {
	if time.Time(d).IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// String implements the fmt.Stringer interface.
func (d Datetime) String() string {
	return time.Time(d).UTC().Format(time.RFC3339Nano)
}

func (d *Datetime) parse(s string) error {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid datetime %q: %w", s, err)
	}
	*d = Datetime(t.UTC())
	return nil
}
