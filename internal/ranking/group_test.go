package ranking

import (
	"testing"

	"github.com/mauv0809/tankbot/internal/tank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRecent(t *testing.T) {
	records := []Record{
		{SubmissionID: 6, TankName: "Hellcat", Tier: 6, Type: tank.TD},
		{SubmissionID: 5, TankName: "T-34", Tier: 5, Type: tank.Medium},
		{SubmissionID: 4, TankName: "IS-3", Tier: 8, Type: tank.Heavy},
		{SubmissionID: 3, TankName: "Odd", Tier: 1, Type: tank.Type("spg")},
		{SubmissionID: 2, TankName: "Tiger II", Tier: 7, Type: tank.Heavy},
		{SubmissionID: 1, TankName: "IS-3", Tier: 8, Type: tank.Heavy},
	}

	groups := GroupRecent(records)
	require.Len(t, groups, 4)
	assert.Equal(t, tank.Heavy, groups[0].Type)
	assert.Equal(t, tank.Medium, groups[1].Type)
	assert.Equal(t, tank.TD, groups[2].Type)
	assert.Equal(t, tank.Type("spg"), groups[3].Type)

	heavy := groups[0]
	require.Len(t, heavy.Tiers, 2)
	assert.Equal(t, 8, heavy.Tiers[0].Tier)
	assert.Equal(t, []int64{4, 1}, []int64{heavy.Tiers[0].Records[0].SubmissionID, heavy.Tiers[0].Records[1].SubmissionID})
	assert.Equal(t, 7, heavy.Tiers[1].Tier)

	assert.Empty(t, GroupRecent(nil))
}
