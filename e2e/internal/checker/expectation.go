package checker

import (
	"fmt"

	"github.com/belly1v123/weatherStationESP32/e2e/internal/observer"
	"github.com/belly1v123/weatherStationESP32/e2e/internal/scenario"
)

// CheckExpectation validates an expectation against the latest message
// captured on its topic
func CheckExpectation(exp scenario.Expectation, messages []observer.CapturedMessage) (bool, string, interface{}) {
	var latest *observer.CapturedMessage
	for i := range messages {
		if messages[i].Topic == exp.Topic {
			latest = &messages[i]
		}
	}
	if latest == nil {
		return false, fmt.Sprintf("no messages found for topic %q", exp.Topic), nil
	}

	if ok, reason := MatchesExpectation(latest.Payload, exp.Payload); !ok {
		return false, reason, latest.Payload
	}
	return true, "", latest.Payload
}
