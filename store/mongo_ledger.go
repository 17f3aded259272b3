package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nexura/db"
	"nexura/models"
)

// Completions

// live restricts filter to completions that have not expired at now. The TTL
// monitor only runs about once a minute, so expired rows can linger.
func live(filter bson.M, now time.Time) bson.M {
	filter["$or"] = bson.A{
		bson.M{"expiresAt": nil},
		bson.M{"expiresAt": bson.M{"$gt": now}},
	}
	return filter
}

func (m *Mongo) InsertCompletion(ctx context.Context, kind models.TaskKind, c *models.Completion) error {
	stale := bson.M{"userId": c.UserID, "taskId": c.TaskID, "expiresAt": bson.M{"$lte": m.Now()}}
	if _, err := m.coll(kind.Collection()).DeleteMany(ctx, stale); err != nil {
		return translate(err, "delete expired "+kind.Collection())
	}
	id, err := m.insert(ctx, kind.Collection(), c)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (m *Mongo) CompletionFor(ctx context.Context, kind models.TaskKind, userID, taskID primitive.ObjectID) (*models.Completion, error) {
	var c models.Completion
	filter := live(bson.M{"userId": userID, "taskId": taskID}, m.Now())
	if err := m.findOne(ctx, kind.Collection(), filter, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *Mongo) MarkCompletionDone(ctx context.Context, kind models.TaskKind, userID, taskID primitive.ObjectID, now time.Time) (bool, error) {
	return m.updateIf(ctx, kind.Collection(),
		live(bson.M{"userId": userID, "taskId": taskID, "done": false, "timer": bson.M{"$lte": now}}, m.Now()),
		bson.M{"$set": bson.M{"done": true}})
}

func (m *Mongo) CountCompletions(ctx context.Context, kind models.TaskKind, userID, parentID primitive.ObjectID) (int, error) {
	filter := live(bson.M{"userId": userID, "parentId": parentID, "done": true}, m.Now())
	n, err := m.coll(kind.Collection()).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", kind.Collection(), err)
	}
	return int(n), nil
}

func (m *Mongo) CompletionsForUser(ctx context.Context, kind models.TaskKind, userID primitive.ObjectID) ([]models.Completion, error) {
	out := []models.Completion{}
	if err := m.findAll(ctx, kind.Collection(), live(bson.M{"userId": userID}, m.Now()), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Campaign progress

func (m *Mongo) JoinCampaign(ctx context.Context, cc *models.CampaignCompletion) error {
	id, err := m.insert(ctx, db.CampaignCompleted, cc)
	if err != nil {
		return err
	}
	cc.ID = id
	return nil
}

func (m *Mongo) CampaignCompletionFor(ctx context.Context, userID, campaignID primitive.ObjectID) (*models.CampaignCompletion, error) {
	var cc models.CampaignCompletion
	if err := m.findOne(ctx, db.CampaignCompleted, bson.M{"userId": userID, "campaignId": campaignID}, &cc); err != nil {
		return nil, err
	}
	return &cc, nil
}

func (m *Mongo) CampaignCompletionsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.CampaignCompletion, error) {
	out := []models.CampaignCompletion{}
	if err := m.findAll(ctx, db.CampaignCompleted, bson.M{"userId": userID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mongo) MarkCampaignQuestsCompleted(ctx context.Context, userID, campaignID primitive.ObjectID) (bool, error) {
	return m.updateIf(ctx, db.CampaignCompleted,
		bson.M{"userId": userID, "campaignId": campaignID, "questsCompleted": false},
		bson.M{"$set": bson.M{"questsCompleted": true}})
}

func (m *Mongo) MarkCampaignClaimed(ctx context.Context, userID, campaignID primitive.ObjectID, now time.Time) (bool, error) {
	return m.updateIf(ctx, db.CampaignCompleted,
		bson.M{"userId": userID, "campaignId": campaignID, "questsCompleted": true, "campaignCompleted": false},
		bson.M{"$set": bson.M{"campaignCompleted": true, "claimedAt": now}})
}

// Referrals

func (m *Mongo) CreateReferredUser(ctx context.Context, r *models.ReferredUser) error {
	id, err := m.insert(ctx, db.ReferredUsers, r)
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func (m *Mongo) ReferredUsers(ctx context.Context, referrerID primitive.ObjectID) ([]models.ReferredUser, error) {
	out := []models.ReferredUser{}
	if err := m.findAll(ctx, db.ReferredUsers, bson.M{"referrerId": referrerID}, &out, newestFirst); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mongo) CountActiveReferrals(ctx context.Context, referrerID primitive.ObjectID) (int, error) {
	n, err := m.coll(db.ReferredUsers).CountDocuments(ctx, bson.M{"referrerId": referrerID, "status": models.StatusActive})
	if err != nil {
		return 0, fmt.Errorf("count referrals: %w", err)
	}
	return int(n), nil
}

func (m *Mongo) ActivateReferredUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := m.coll(db.ReferredUsers).UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"status": models.StatusActive}})
	if err != nil {
		return fmt.Errorf("activate referral: %w", err)
	}
	return nil
}

func (m *Mongo) SyncReferralStatuses(ctx context.Context) (int, error) {
	var pending []models.ReferredUser
	opts := options.Find().SetProjection(bson.M{"userId": 1})
	if err := m.findAll(ctx, db.ReferredUsers, bson.M{"status": bson.M{"$ne": models.StatusActive}}, &pending, opts); err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	ids := make([]primitive.ObjectID, 0, len(pending))
	for _, r := range pending {
		ids = append(ids, r.UserID)
	}

	var active []models.User
	opts = options.Find().SetProjection(bson.M{"_id": 1})
	if err := m.findAll(ctx, db.Users, bson.M{"_id": bson.M{"$in": ids}, "status": models.StatusActive}, &active, opts); err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, nil
	}
	activeIDs := make([]primitive.ObjectID, 0, len(active))
	for _, u := range active {
		activeIDs = append(activeIDs, u.ID)
	}
	res, err := m.coll(db.ReferredUsers).UpdateMany(ctx,
		bson.M{"userId": bson.M{"$in": activeIDs}},
		bson.M{"$set": bson.M{"status": models.StatusActive}})
	if err != nil {
		return 0, fmt.Errorf("sync referrals: %w", err)
	}
	return int(res.ModifiedCount), nil
}

// Outbox

func (m *Mongo) EnqueueRelay(ctx context.Context, a *models.RelayAction) error {
	id, err := m.insert(ctx, db.RelayActions, a)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (m *Mongo) DueRelayActions(ctx context.Context, now time.Time, limit int) ([]models.RelayAction, error) {
	filter := bson.M{
		"status":        bson.M{"$in": bson.A{models.RelayStatusPending, models.RelayStatusSubmitted}},
		"nextAttemptAt": bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "nextAttemptAt", Value: 1}}).SetLimit(int64(limit))
	out := []models.RelayAction{}
	if err := m.findAll(ctx, db.RelayActions, filter, &out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mongo) RelayActionsByStatus(ctx context.Context, status string, limit int) ([]models.RelayAction, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	out := []models.RelayAction{}
	if err := m.findAll(ctx, db.RelayActions, filter, &out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mongo) RelayActionByID(ctx context.Context, id primitive.ObjectID) (*models.RelayAction, error) {
	var a models.RelayAction
	if err := m.findOne(ctx, db.RelayActions, bson.M{"_id": id}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (m *Mongo) UpdateRelayAction(ctx context.Context, a *models.RelayAction) error {
	res, err := m.coll(db.RelayActions).ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return translate(err, "replace relay action")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
