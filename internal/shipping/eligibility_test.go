package shipping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyOrder() Order {
	return Order{
		ID:          42,
		Name:        "WH/OUT/00042",
		State:       StateDone,
		MoveLineIDs: []int64{1},
		MoveIDs:     []int64{10},
		PartnerID:   7,
		CarrierName: "SERVIENTREGA NACIONAL",
	}
}

func TestEligibility_Valid(t *testing.T) {
	require.NoError(t, Eligibility{}.Validate(readyOrder(), 7))
}

func TestEligibility_NotDoneAlwaysRejected(t *testing.T) {
	for _, state := range []string{"draft", "waiting", "confirmed", "assigned", "cancel", ""} {
		o := readyOrder()
		o.State = state

		err := Eligibility{AllowExistingGuide: true}.Validate(o, 7)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "state %q", state)
		assert.Contains(t, ve.Problems, ProblemNotDone)
	}
}

func TestEligibility_CollectsEveryProblem(t *testing.T) {
	o := readyOrder()
	o.State = "assigned"
	o.TrackingRef = "123"
	o.MoveLineIDs = nil

	err := Eligibility{}.Validate(o, 0)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{ProblemNotDone, ProblemHasGuide, ProblemNoRecipient, ProblemNoLineItems}, ve.Problems)
	assert.Equal(t, ProblemNotDone+" | "+ProblemHasGuide+" | "+ProblemNoRecipient+" | "+ProblemNoLineItems, err.Error())
}

func TestEligibility_AllowExistingGuide(t *testing.T) {
	o := readyOrder()
	o.TrackingRef = "123"
	assert.Error(t, Eligibility{}.Validate(o, 7))
	assert.NoError(t, Eligibility{AllowExistingGuide: true}.Validate(o, 7))
}

func TestCarrierMatcher(t *testing.T) {
	m := CarrierMatcher{Carrier: "Servientrega"}

	cases := []struct {
		carrier string
		flag    bool
		want    bool
	}{
		{"SERVIENTREGA NACIONAL", false, true},
		{"servientrega express", false, true},
		{"Envío Servientrega", false, true},
		{"TCC EXPRESS", false, false},
		{"", false, false},
		{"TCC EXPRESS", true, false},
	}
	for _, tc := range cases {
		o := Order{CarrierName: tc.carrier, CarrierFlag: tc.flag}
		assert.Equal(t, tc.want, m.Match(o), "carrier %q flag %v", tc.carrier, tc.flag)
	}

	withFlag := CarrierMatcher{Carrier: "Servientrega", HonorFlag: true}
	assert.True(t, withFlag.Match(Order{CarrierName: "TCC EXPRESS", CarrierFlag: true}))
	assert.False(t, withFlag.Match(Order{CarrierName: "TCC EXPRESS"}))
}
