package mq

import (
	"encoding/json"
	"testing"

	"gucnotify/internal/model"
)

func validPayload() CourseItemNewPayload {
	return CourseItemNewPayload{
		MessageID: "m1",
		User: model.User{
			Username: "jane.doe",
			Password: "secret",
			Email:    "jane@example.com",
		},
		Course: model.CourseMetadata{ID: "c1", Name: "Databases"},
		Item:   model.CourseItem{URL: "https://x/1", Title: "Lecture 1"},
	}
}

func TestCourseItemPayloadValidate(t *testing.T) {
	t.Parallel()

	p := validPayload()
	if err := p.Validate(); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*CourseItemNewPayload)
	}{
		{"missing username", func(p *CourseItemNewPayload) { p.User.Username = "" }},
		{"missing email", func(p *CourseItemNewPayload) { p.User.Email = "" }},
		{"missing course id", func(p *CourseItemNewPayload) { p.Course.ID = "" }},
		{"missing item url", func(p *CourseItemNewPayload) { p.Item.URL = "" }},
		{"missing item title", func(p *CourseItemNewPayload) { p.Item.Title = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPayload()
			tc.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Errorf("payload with %s passed validation", tc.name)
			}
		})
	}
}

func TestUserSyncPayloadValidate(t *testing.T) {
	t.Parallel()

	p := UserSyncPayload{User: model.User{
		Username: "jane.doe",
		Password: "secret",
		Email:    "jane@example.com",
	}}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	p.User.Password = ""
	if err := p.Validate(); err == nil {
		t.Error("payload without password passed validation")
	}
}

// 密码散列绝不能进信封
func TestUserPasswordHashNeverSerialized(t *testing.T) {
	t.Parallel()

	u := model.User{Username: "jane.doe", PasswordHash: "bcrypt-hash"}
	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for key := range decoded {
		if key == "password_hash" {
			t.Error("password_hash leaked into the serialized user")
		}
	}
}
