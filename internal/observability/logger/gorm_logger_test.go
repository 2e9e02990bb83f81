package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM invoices":                         "SELECT",
		"  insert into invoice_items (id) values (1)":    "INSERT",
		"UPDATE invoices SET status = 'paid'":            "UPDATE",
		"DELETE FROM invoice_items WHERE invoice_id = 1": "DELETE",
		"WITH totals AS (SELECT 1) SELECT * FROM totals": "SELECT",
		"":                         "UNKNOWN",
		"PRAGMA foreign_keys = ON": "UNKNOWN",
	}
	for sql, want := range cases {
		assert.Equal(t, want, operationFromSQL(sql), sql)
	}
}
