package sqldb

import (
	"reflect"
	"testing"
	"time"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{
			name:    "sqlite untouched",
			dialect: SQLite,
			query:   "SELECT * FROM goals WHERE id = ? AND account_id = ?",
			want:    "SELECT * FROM goals WHERE id = ? AND account_id = ?",
		},
		{
			name:    "postgres numbered",
			dialect: Postgres,
			query:   "UPDATE accounts SET coins = coins + ? WHERE id = ? AND coins + ? >= 0",
			want:    "UPDATE accounts SET coins = coins + $1 WHERE id = $2 AND coins + $3 >= 0",
		},
		{
			name:    "quoted question mark kept",
			dialect: Postgres,
			query:   "SELECT '?' FROM goals WHERE id = ?",
			want:    "SELECT '?' FROM goals WHERE id = $1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWeekdayColumn(t *testing.T) {
	days := []time.Weekday{time.Sunday, time.Wednesday, time.Saturday}
	encoded := formatWeekdays(days)
	if encoded != "0,3,6" {
		t.Errorf("formatWeekdays() = %q, want %q", encoded, "0,3,6")
	}

	decoded, err := parseWeekdays(encoded)
	if err != nil {
		t.Fatalf("parseWeekdays() error = %v", err)
	}
	if !reflect.DeepEqual(decoded, days) {
		t.Errorf("parseWeekdays() = %v, want %v", decoded, days)
	}

	if got, err := parseWeekdays(""); err != nil || got != nil {
		t.Errorf("parseWeekdays(\"\") = %v, %v; want nil, nil", got, err)
	}
	if _, err := parseWeekdays("1,x"); err == nil {
		t.Error("parseWeekdays accepted a non-numeric weekday")
	}
}

func TestTimeColumnKeepsInstant(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	in := time.Date(2026, 3, 1, 10, 30, 15, 123456789, loc)

	out, err := parseTime(formatTime(in))
	if err != nil {
		t.Fatalf("parseTime() error = %v", err)
	}
	if !out.Equal(in) {
		t.Errorf("round trip = %v, want %v", out, in)
	}
	if out.Location() != time.UTC {
		t.Errorf("stored times should come back in UTC, got %v", out.Location())
	}
}
