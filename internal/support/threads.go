package support

import (
	"sort"
	"strings"

	"betportal/internal/models"
)

// ComputeThreads groups messages by thread key, case-insensitively. Threads
// with no user or system messages are dropped. Messages inside a thread are
// sorted by their time string ascending and threads by lastUserTime
// descending; both sorts are stable.
func ComputeThreads(messages []models.Message) []models.Thread {
	index := make(map[string]int)
	var threads []models.Thread

	for _, m := range messages {
		key := ThreadKey(m)
		if key == "" {
			continue
		}
		norm := strings.ToLower(key)
		i, ok := index[norm]
		if !ok {
			i = len(threads)
			index[norm] = i
			threads = append(threads, models.Thread{ID: key})
		}
		threads[i].Messages = append(threads[i].Messages, m)
	}

	out := make([]models.Thread, 0, len(threads))
	for _, t := range threads {
		sort.SliceStable(t.Messages, func(a, b int) bool {
			return t.Messages[a].Time < t.Messages[b].Time
		})

		hasUser := false
		for _, m := range t.Messages {
			if IsAdmin(m) {
				continue
			}
			hasUser = true
			if !m.Handled {
				t.Unread++
			}
			t.LastUserText = m.Text
			t.LastUserTime = m.Time
		}
		if hasUser {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].LastUserTime > out[b].LastUserTime
	})
	return out
}

// UnreadTotal sums unread counts across threads
func UnreadTotal(threads []models.Thread) int {
	total := 0
	for _, t := range threads {
		total += t.Unread
	}
	return total
}

// MarkMessagesAsHandled returns a copy of messages with every non-admin
// message of threadID flagged handled.
func MarkMessagesAsHandled(messages []models.Message, threadID string) []models.Message {
	out := make([]models.Message, len(messages))
	for i, m := range messages {
		if !IsAdmin(m) && SameThread(ThreadKey(m), threadID) {
			m.Handled = true
		}
		out[i] = m
	}
	return out
}

// MarkSeen returns a copy of messages where username was added to seenBy of
// every admin message in threadID. Existing entries are never removed.
func MarkSeen(messages []models.Message, threadID, username string) []models.Message {
	out := make([]models.Message, len(messages))
	for i, m := range messages {
		if username != "" && IsAdmin(m) && SameThread(ThreadKey(m), threadID) && !contains(m.SeenBy, username) {
			seen := make([]string, len(m.SeenBy), len(m.SeenBy)+1)
			copy(seen, m.SeenBy)
			m.SeenBy = append(seen, username)
		}
		out[i] = m
	}
	return out
}

// DeleteThread drops every record of threadID
func DeleteThread(messages []models.Message, threadID string) []models.Message {
	out := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if SameThread(ThreadKey(m), threadID) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// UnseenBy counts admin messages in threadID that username has not seen yet
func UnseenBy(messages []models.Message, threadID, username string) int {
	n := 0
	for _, m := range messages {
		if IsAdmin(m) && SameThread(ThreadKey(m), threadID) && !contains(m.SeenBy, username) {
			n++
		}
	}
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
