package approval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSuperiorWalksChain(t *testing.T) {
	f := newFixture(t)
	f.seedOrgChart()
	ctx := context.Background()

	superior, err := f.service.ResolveSuperior(ctx, "emp-3", 1)
	assert.NoError(t, err)
	assert.Equal(t, "emp-2", superior.ID)

	superior, err = f.service.ResolveSuperior(ctx, "emp-3", 2)
	assert.NoError(t, err)
	assert.Equal(t, "emp-1", superior.ID)
}

func TestResolveSuperiorLevelZeroIsSelf(t *testing.T) {
	f := newFixture(t)
	f.seedOrgChart()

	superior, err := f.service.ResolveSuperior(context.Background(), "emp-3", 0)
	assert.NoError(t, err)
	assert.Equal(t, "emp-3", superior.ID)
}

func TestResolveSuperiorChainTooShort(t *testing.T) {
	f := newFixture(t)
	f.seedOrgChart()

	_, err := f.service.ResolveSuperior(context.Background(), "emp-3", 3)
	var tooShort *ChainTooShortError
	assert.ErrorAs(t, err, &tooShort)
	assert.Equal(t, "emp-3", tooShort.EmployeeID)
	assert.Equal(t, 3, tooShort.Level)
	assert.Equal(t, 2, tooShort.Reached)
}

func TestResolveSuperiorUnknownEmployee(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ResolveSuperior(context.Background(), "nobody", 1)
	var unknown *UnknownEmployeeError
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nobody", unknown.EmployeeID)
}

func TestResolveSuperiorDanglingManagerReference(t *testing.T) {
	f := newFixture(t)
	f.seedEmployee(employeeWithManager("emp-9", "gone"))

	_, err := f.service.ResolveSuperior(context.Background(), "emp-9", 1)
	var tooShort *ChainTooShortError
	assert.ErrorAs(t, err, &tooShort)
	assert.Equal(t, 0, tooShort.Reached)
}
