package bamreader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordPoolRoundTrip(t *testing.T) {
	rec := GetRecord()
	rec.Name = "read1"
	PutRecord(rec)

	rec2 := GetRecord()
	assert.Equal(t, "", rec2.Name, "pooled record must come back zeroed")
}

func TestRecordPoolDistinctInstancesForSuccessiveGets(t *testing.T) {
	a := GetRecord()
	b := GetRecord()
	assert.NotSame(t, a, b)
	PutRecord(a)
	PutRecord(b)
}
