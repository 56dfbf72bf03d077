package http

import (
	"net/http"
	"testing"
	"time"

	"lms-quiz-service/internal/domain"

	"github.com/gorilla/websocket"
)

func TestTimerStreamTicksUntilSubmit(t *testing.T) {
	env := newAPI(t, Options{TimerInterval: 20 * time.Millisecond})
	alice := token(t, "alice", domain.RoleStudent)

	status, body := env.do(t, http.MethodPost, "/api/quiz-attempts/start", alice,
		map[string]string{"quizId": "quiz-1", "courseId": "course-1"})
	if status != http.StatusCreated {
		t.Fatalf("start: %d %v", status, body)
	}
	attemptID := body["attempt"].(map[string]interface{})["id"].(string)

	u := "ws" + env.server.URL[len("http"):] + "/ws/attempts/" + attemptID + "/timer?token=" + alice
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	typ, payload := readTimer(t, conn)
	if typ != "tick" {
		t.Fatalf("expected tick first, got %s", typ)
	}
	if payload.AttemptID != attemptID || payload.RemainingSeconds <= 0 || payload.RemainingSeconds > 600 {
		t.Fatalf("unexpected tick payload: %+v", payload)
	}

	status, body = env.do(t, http.MethodPost, "/api/quiz-attempts/submit", alice,
		map[string]interface{}{"attemptId": attemptID, "answers": []interface{}{}})
	if status != http.StatusOK {
		t.Fatalf("submit: %d %v", status, body)
	}

	for i := 0; i < 50; i++ {
		typ, payload = readTimer(t, conn)
		if typ == "closed" {
			if payload.Status != domain.AttemptCompleted || payload.RemainingSeconds != 0 {
				t.Fatalf("unexpected closed payload: %+v", payload)
			}
			return
		}
	}
	t.Fatalf("expected a closed message after submit")
}

func TestTimerStreamRejectsOtherStudents(t *testing.T) {
	env := newAPI(t, Options{})
	alice := token(t, "alice", domain.RoleStudent)
	bob := token(t, "bob", domain.RoleStudent)

	_, body := env.do(t, http.MethodPost, "/api/quiz-attempts/start", alice,
		map[string]string{"quizId": "quiz-1", "courseId": "course-1"})
	attemptID := body["attempt"].(map[string]interface{})["id"].(string)

	u := "ws" + env.server.URL[len("http"):] + "/ws/attempts/" + attemptID + "/timer?token=" + bob
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected handshake to fail for a non-owner")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func readTimer(t *testing.T, conn *websocket.Conn) (string, timerPayload) {
	t.Helper()
	var msg struct {
		Type    string       `json:"type"`
		Payload timerPayload `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}
