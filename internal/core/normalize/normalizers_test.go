package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type acceptCase struct {
	in   string
	want string
	ok   bool
}

func runAccept(t *testing.T, fn func(string) (string, bool), cases []acceptCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := fn(tc.in)
			require.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPhone(t *testing.T) {
	runAccept(t, Phone, []acceptCase{
		{"9876543210", "+919876543210", true},
		{"+91-9876543210", "+919876543210", true},
		{"09876543210", "+919876543210", true},
		{"98765 4321O", "+919876543210", true},
		{"0019876543210", "+919876543210", true},
		{"919876543210123", "+919876543210123", true},
		{"123", "", false},
		{"1234567890123456", "", false},
		{"call me", "", false},
		{"", "", false},
	})
}

func TestPAN(t *testing.T) {
	runAccept(t, PAN, []acceptCase{
		{"ABCDE1234F", "ABCDE1234F", true},
		{"abcde 1234 f", "ABCDE1234F", true},
		{"ab de 1234 f", "", false},
		{"ABCD12345F", "", false},
		{"", "", false},
	})
}

func TestAadhaar(t *testing.T) {
	runAccept(t, Aadhaar, []acceptCase{
		{"1234 5678 9012", "123456789012", true},
		{"1234-5678-90l2", "123456789012", true},
		{"1234", "", false},
		{"1234 5678 9012 3", "", false},
		{"", "", false},
	})
}

func TestAccountNumber(t *testing.T) {
	runAccept(t, AccountNumber, []acceptCase{
		{"0012 3456 7890", "001234567890", true},
		{"A/C 5O1234", "501234", true},
		{"12345", "", false},
	})
}

func TestEmployeeID(t *testing.T) {
	runAccept(t, EmployeeID, []acceptCase{
		{"EMP-001", "001", true},
		{"emp 12O", "120", true},
		{"STAFF_B7", "87", true},
		{"AB-42", "A8-42", true},
		{"ID: A", "", false},
		{"", "", false},
	})
}

func TestEmail(t *testing.T) {
	runAccept(t, Email, []acceptCase{
		{"John.Doe@Gmail.com", "john.doe@gmail.com", true},
		{"john doe@gma1l.com", "john.doe@gmail.com", true},
		{"priya@yah0o.in", "priya@yahoo.in", true},
		{"john@gmail", "john@gmail.com", true},
		{"johngmail.com", "", false},
		{"john@@gmail.com", "", false},
		{"jo!hn@gmail.com", "", false},
		{"", "", false},
	})
}

func TestDate(t *testing.T) {
	runAccept(t, Date, []acceptCase{
		{"15-08-1947", "1947-08-15", true},
		{"15/08/1947", "1947-08-15", true},
		{"1947-08-15", "1947-08-15", true},
		{"1947/8/5", "1947-08-05", true},
		{"5-8-47", "2047-08-05", true},
		{"15-Aug-1947", "1947-08-15", true},
		{"15 August 1947", "1947-08-15", true},
		{"January 12, 2020", "2020-01-12", true},
		{"12 Jan 20", "2020-01-12", true},
		{"5th March 1990", "1990-03-05", true},
		{"DOB: 29/02/2000", "2000-02-29", true},
		{"2001-05-12", "2001-05-12", true},
		{"1912-01-10", "1912-01-10", true},
		{"2020-01-12", "2020-01-12", true},
		{"Born 2005-03-15.", "2005-03-15", true},
		{"15/03/2005", "2005-03-15", true},
		{"30/02/2020", "", false},
		{"32-13-2020", "", false},
		{"15 Foo 1947", "", false},
		{"invalid", "", false},
		{"", "", false},
	})
}

func TestName(t *testing.T) {
	tests := map[string]string{
		"john doe":      "John Doe",
		"  JOHN   DOE ": "John Doe",
		"j doe":         "J. Doe",
		"o'brien":       "O'Brien",
		"":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Name(in), in)
	}
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, NameKey("John Doe"), NameKey("doe JOHN"))
	assert.Equal(t, "doe john", NameKey("John John Doe"))
	assert.NotEqual(t, NameKey("John Doe"), NameKey("Jane Doe"))
}

func TestNormalizersAreIdempotent(t *testing.T) {
	fns := map[string]func(string) (string, bool){
		"phone":       Phone,
		"pan":         PAN,
		"aadhaar":     Aadhaar,
		"date":        Date,
		"email":       Email,
		"employee_id": EmployeeID,
		"account":     AccountNumber,
	}
	inputs := map[string][]string{
		"phone":       {"9876543210", "09876543210", "+91 98765-43210", "0019876543210"},
		"pan":         {"abcde1234f", "PQRST 9876 Z"},
		"aadhaar":     {"1234 5678 9012"},
		"date":        {"15/08/1947", "January 12, 2020", "12 Jan 20", "2001-05-12", "1912-01-10", "15 August 1947"},
		"email":       {"John Doe@gma1l.com", "a@b"},
		"employee_id": {"EMP-00O1", "staff 42"},
		"account":     {"0012 3456 7890"},
	}
	for name, fn := range fns {
		for _, in := range inputs[name] {
			once, ok := fn(in)
			require.True(t, ok, "%s(%q)", name, in)
			twice, ok := fn(once)
			require.True(t, ok, "%s(%q)", name, once)
			assert.Equal(t, once, twice, "%s(%q)", name, in)
		}
	}
	for _, in := range []string{"j doe", "MARY  o'brien"} {
		assert.Equal(t, Name(in), Name(Name(in)))
	}
}
