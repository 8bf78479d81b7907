package mongodb

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestActiveRulesForRouteFilter(t *testing.T) {
	routeID := primitive.NewObjectID()
	filter := activeRulesForRouteFilter(routeID)

	if filter["active"] != true {
		t.Fatalf("filter must restrict to active rules, got %v", filter["active"])
	}

	branches, ok := filter["$or"].([]bson.M)
	if !ok {
		t.Fatalf("expected $or branches, got %T", filter["$or"])
	}

	var sawEmpty, sawRoute bool
	for _, b := range branches {
		v := b["applicable_routes"]
		if m, ok := v.(bson.M); ok {
			if size, ok := m["$size"]; ok && size == 0 {
				sawEmpty = true
			}
		}
		if id, ok := v.(primitive.ObjectID); ok && id == routeID {
			sawRoute = true
		}
	}
	if !sawEmpty {
		t.Errorf("filter does not admit rules with an empty route scope: %v", branches)
	}
	if !sawRoute {
		t.Errorf("filter does not admit rules scoped to %s: %v", routeID.Hex(), branches)
	}
}
