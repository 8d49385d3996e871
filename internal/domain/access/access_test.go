package access

import (
	"testing"

	"docuflow/internal/domain/entity"
)

func doc(access entity.Access) *entity.Document {
	return &entity.Document{
		ID:           "d1",
		Access:       access,
		UploaderID:   "owner",
		UploaderRole: "finance",
	}
}

func TestCanView(t *testing.T) {
	tests := []struct {
		name   string
		access entity.Access
		actor  entity.Actor
		want   bool
	}{
		{"public visible to anyone", entity.AccessPublic, entity.Actor{ID: "x", Role: "guest"}, true},
		{"private hidden from strangers", entity.AccessPrivate, entity.Actor{ID: "x", Role: "guest"}, false},
		{"private visible to uploader", entity.AccessPrivate, entity.Actor{ID: "owner", Role: "finance"}, true},
		{"private visible to admin", entity.AccessPrivate, entity.Actor{ID: "x", Role: entity.RoleAdmin}, true},
		{"role visible to same role", entity.AccessRole, entity.Actor{ID: "x", Role: "finance"}, true},
		{"role hidden from other roles", entity.AccessRole, entity.Actor{ID: "x", Role: "legal"}, false},
		{"role visible to uploader", entity.AccessRole, entity.Actor{ID: "owner", Role: ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanView(doc(tt.access), tt.actor); got != tt.want {
				t.Fatalf("CanView = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanModify(t *testing.T) {
	d := doc(entity.AccessPublic)

	if !CanModify(d, entity.Actor{ID: "owner"}) {
		t.Fatal("uploader should be able to modify")
	}
	if !CanModify(d, entity.Actor{ID: "x", Role: entity.RoleAdmin}) {
		t.Fatal("admin should be able to modify")
	}
	if CanModify(d, entity.Actor{ID: "x", Role: "finance"}) {
		t.Fatal("non-owner non-admin must not modify")
	}
}
