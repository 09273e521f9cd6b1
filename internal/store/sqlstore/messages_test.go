package sqlstore

import (
	"testing"
)

func TestSaveMessage(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	a := mustCreateUser(t, "anna")
	b := mustCreateUser(t, "bela")
	m, _ := testStore.CreateMatch(a.ID, b.ID)

	msg, err := testStore.SaveMessage(m.ID, a.ID, "szia")
	if err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	if msg.ID == 0 {
		t.Error("Expected non-zero message ID")
	}
	if msg.MatchID != m.ID || msg.SenderID != a.ID {
		t.Errorf("Message has wrong ids: %+v", msg)
	}
	if msg.Content != "szia" {
		t.Errorf("Expected content 'szia', got '%s'", msg.Content)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestGetMatchMessagesOrderAndEnrichment(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	a := mustCreateUser(t, "anna")
	b := mustCreateUser(t, "bela")
	testStore.AddUserImage(a.ID, "https://img.example/anna.jpg")
	m, _ := testStore.CreateMatch(a.ID, b.ID)

	contents := []string{"first", "second", "third"}
	senders := []int64{a.ID, b.ID, a.ID}
	for i, c := range contents {
		if _, err := testStore.SaveMessage(m.ID, senders[i], c); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	messages, err := testStore.GetMatchMessages(m.ID)
	if err != nil {
		t.Fatalf("GetMatchMessages failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}

	for i, msg := range messages {
		if msg.Content != contents[i] {
			t.Errorf("Message %d out of order: expected '%s', got '%s'", i, contents[i], msg.Content)
		}
		if msg.Sender == nil {
			t.Fatalf("Message %d missing sender enrichment", i)
		}
	}

	if messages[0].Sender.Username != "anna" {
		t.Errorf("Expected sender 'anna', got '%s'", messages[0].Sender.Username)
	}
	if messages[0].Sender.ProfileImageURL == nil || *messages[0].Sender.ProfileImageURL != "https://img.example/anna.jpg" {
		t.Error("Expected anna's profile image on her message")
	}
	if messages[1].Sender.ProfileImageURL != nil {
		t.Error("Expected no profile image for bela")
	}
}

func TestGetMatchMessagesEmpty(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	a := mustCreateUser(t, "anna")
	b := mustCreateUser(t, "bela")
	m, _ := testStore.CreateMatch(a.ID, b.ID)

	messages, err := testStore.GetMatchMessages(m.ID)
	if err != nil {
		t.Fatalf("GetMatchMessages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("Expected no messages, got %d", len(messages))
	}
}
