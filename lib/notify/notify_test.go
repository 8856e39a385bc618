package notify

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/dp-pcs/noah-hw-mcp/lib/portal/extract"
	"github.com/dp-pcs/noah-hw-mcp/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func due(year int, month time.Month, day int) *extract.Date {
	d := extract.NewDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	return &d
}

func TestRenderDigest(t *testing.T) {
	items := []extract.Assignment{
		{Title: "Chapter 4 Worksheet", Course: "Pre-Algebra", DueDate: due(2024, 3, 1)},
		{Title: "Lab Writeup", Course: "Science 7"},
	}

	text := renderDigest(items)
	require.Contains(t, text, "2 missing assignment(s)")
	require.Contains(t, text, "- Chapter 4 Worksheet (Pre-Algebra, due 2024-03-01)")
	require.Contains(t, text, "- Lab Writeup (Science 7, no due date)")

	require.Contains(t, renderDigest(nil), "no missing assignments")
}

func TestSubjectLine(t *testing.T) {
	require.Equal(t, "No missing assignments", subjectLine(nil))
	require.Equal(t, "3 missing assignment(s)", subjectLine(make([]extract.Assignment, 3)))
}

func TestNoRecipients(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:notify")
	defer cleanup()

	n := NewNotifier(Options{})
	err := n.SendMissingAssignments(context.Background(), nil)
	require.ErrorContains(t, err, "no notification recipients")
}

func setup(t testing.TB) (Notifier, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:notify")

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	smtp, err := testcontainers.GenericContainer(
		context.Background(),
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025:1025", "1080:1080"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	notifier := NewNotifier(Options{
		Smtp: SmtpConfig{
			Server:       "localhost",
			Port:         1025,
			EmailAddress: "portal@email.com",
			Password:     "default",
		},
		Recipients: []string{"parent@email.com"},
	})

	return notifier, func() {
		cleanup()
		err := smtp.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}
}

var globalClient = resty.New()

func TestSendMissingAssignments(t *testing.T) {
	notifier, cleanup := setup(t)
	defer cleanup()

	items := []extract.Assignment{
		{Title: "Essay Draft", Course: "Language Arts", DueDate: due(2024, 3, 4)},
	}
	err := notifier.SendMissingAssignments(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}

	res, err := globalClient.R().
		Get("http://127.0.0.1:1080/messages/1.plain")
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, res.String(), "Essay Draft")
	require.Contains(t, res.String(), "Language Arts, due 2024-03-04")
}
