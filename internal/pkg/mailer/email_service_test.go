package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscalationBodyEscapesContent(t *testing.T) {
	body := EscalationBody(EscalationNotice{
		ApprovalId:  "a-1",
		ContentType: "treatment_comparison",
		Confidence:  0.42,
		Reason:      "dosage <conflict>",
		Preview:     "<script>x</script>",
	})

	assert.Contains(t, body, "a-1")
	assert.Contains(t, body, "0.42")
	assert.Contains(t, body, "dosage &lt;conflict&gt;")
	assert.NotContains(t, body, "<script>")
}
