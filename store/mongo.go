package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nexura/db"
	"nexura/models"
)

// Mongo implements Store on a MongoDB database
type Mongo struct {
	database *mongo.Database
	// Now is the clock used to hide completions past expiresAt that the
	// TTL monitor has not reaped yet
	Now func() time.Time
}

func NewMongo(database *mongo.Database) *Mongo {
	return &Mongo{database: database, Now: time.Now}
}

func (m *Mongo) coll(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// translate maps driver errors onto the package sentinels
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (m *Mongo) findOne(ctx context.Context, coll string, filter bson.M, out interface{}) error {
	return translate(m.coll(coll).FindOne(ctx, filter).Decode(out), "find "+coll)
}

func (m *Mongo) findAll(ctx context.Context, coll string, filter bson.M, out interface{}, opts ...*options.FindOptions) error {
	cursor, err := m.coll(coll).Find(ctx, filter, opts...)
	if err != nil {
		return fmt.Errorf("find %s: %w", coll, err)
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

func (m *Mongo) insert(ctx context.Context, coll string, doc interface{}) (primitive.ObjectID, error) {
	res, err := m.coll(coll).InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, translate(err, "insert "+coll)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

// updateIf applies update when filter matches and reports whether it did
func (m *Mongo) updateIf(ctx context.Context, coll string, filter, update bson.M) (bool, error) {
	res, err := m.coll(coll).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, translate(err, "update "+coll)
	}
	return res.ModifiedCount == 1, nil
}

func (m *Mongo) updateByID(ctx context.Context, coll string, id primitive.ObjectID, update bson.M) error {
	res, err := m.coll(coll).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err, "update "+coll)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Users

func (m *Mongo) CreateUser(ctx context.Context, u *models.User) error {
	id, err := m.insert(ctx, db.Users, u)
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (m *Mongo) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := m.findOne(ctx, db.Users, bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *Mongo) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := m.findOne(ctx, db.Users, bson.M{"username": username}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *Mongo) UserByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var u models.User
	if err := m.findOne(ctx, db.Users, bson.M{"walletAddress": wallet}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *Mongo) UserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var u models.User
	if err := m.findOne(ctx, db.Users, bson.M{"referral.code": code}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *Mongo) incUser(ctx context.Context, id primitive.ObjectID, inc bson.M) (*models.User, error) {
	update := bson.M{"$inc": inc, "$set": bson.M{"updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := m.coll(db.Users).FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u)
	if err != nil {
		return nil, translate(err, "update user")
	}
	return &u, nil
}

func (m *Mongo) GrantReward(ctx context.Context, id primitive.ObjectID, r models.Reward) (*models.User, error) {
	return m.incUser(ctx, id, bson.M{
		"xp":                 r.XP,
		"trustEarned":        r.Trust,
		"questsCompleted":    r.Quests,
		"campaignsCompleted": r.Campaigns,
	})
}

func (m *Mongo) CreditReferral(ctx context.Context, referrerID primitive.ObjectID, xp int) (*models.User, error) {
	return m.incUser(ctx, referrerID, bson.M{
		"xp":                     xp,
		"referral.xp":            xp,
		"referral.referredCount": 1,
	})
}

func (m *Mongo) SetLevel(ctx context.Context, id primitive.ObjectID, level, tier string) error {
	return m.updateByID(ctx, db.Users, id, bson.M{"$set": bson.M{"level": level, "tier": tier}})
}

func (m *Mongo) ActivateUser(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return m.updateIf(ctx, db.Users,
		bson.M{"_id": id, "status": bson.M{"$ne": models.StatusActive}},
		bson.M{"$set": bson.M{"status": models.StatusActive, "updatedAt": time.Now()}})
}

func (m *Mongo) MarkRefRewardClaimed(ctx context.Context, id primitive.ObjectID, trust float64) (bool, error) {
	return m.updateIf(ctx, db.Users,
		bson.M{"_id": id, "refRewardClaimed": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"refRewardClaimed": true}, "$inc": bson.M{"trustEarned": trust}})
}

func (m *Mongo) MarkRefRewardAllowed(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return m.updateIf(ctx, db.Users,
		bson.M{"_id": id, "refRewardAllowed": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"refRewardAllowed": true}})
}

func (m *Mongo) AddBadge(ctx context.Context, id primitive.ObjectID, level int) (bool, error) {
	return m.updateIf(ctx, db.Users,
		bson.M{"_id": id, "badges": bson.M{"$ne": level}},
		bson.M{"$push": bson.M{"badges": level}})
}

func (m *Mongo) CheckIn(ctx context.Context, id primitive.ObjectID, prev *time.Time, at time.Time, streak, longest int) (bool, error) {
	filter := bson.M{"_id": id}
	if prev == nil {
		filter["lastCheckIn"] = bson.M{"$exists": false}
	} else {
		filter["lastCheckIn"] = *prev
	}
	return m.updateIf(ctx, db.Users, filter, bson.M{"$set": bson.M{
		"lastCheckIn":   at,
		"streak":        streak,
		"longestStreak": longest,
	}})
}

func (m *Mongo) SetSocial(ctx context.Context, id primitive.ObjectID, provider string, acct models.SocialAccount) error {
	return m.updateByID(ctx, db.Users, id, bson.M{"$set": bson.M{"socials." + provider: acct}})
}

func (m *Mongo) TopUsers(ctx context.Context, limit int) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "xp", Value: -1}, {Key: "_id", Value: 1}}).SetLimit(int64(limit))
	users := []models.User{}
	if err := m.findAll(ctx, db.Users, bson.M{}, &users, opts); err != nil {
		return nil, err
	}
	return users, nil
}

// Projects

func (m *Mongo) CreateProject(ctx context.Context, p *models.Project) error {
	id, err := m.insert(ctx, db.Projects, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (m *Mongo) ProjectByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := m.findOne(ctx, db.Projects, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *Mongo) ProjectByEmail(ctx context.Context, email string) (*models.Project, error) {
	var p models.Project
	if err := m.findOne(ctx, db.Projects, bson.M{"email": email}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *Mongo) AllocateXP(ctx context.Context, id primitive.ObjectID, xp int, trust float64) error {
	return m.updateByID(ctx, db.Projects, id, bson.M{"$inc": bson.M{"xpAllocated": xp, "trustAllocated": trust}})
}

func (m *Mongo) ConsumeXPAllocation(ctx context.Context, id primitive.ObjectID) (int, float64, error) {
	filter := bson.M{"_id": id, "xpAllocated": bson.M{"$gt": 0}}
	update := bson.M{"$set": bson.M{"xpAllocated": 0, "trustAllocated": 0}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var p models.Project
	err := m.coll(db.Projects).FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("consume allocation: %w", err)
	}
	return p.XPAllocated, p.TrustAllocated, nil
}

// Admins

func (m *Mongo) CreateAdmin(ctx context.Context, a *models.Admin) error {
	id, err := m.insert(ctx, db.Admins, a)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (m *Mongo) AdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	if err := m.findOne(ctx, db.Admins, bson.M{"email": email}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (m *Mongo) CreateInvite(ctx context.Context, inv *models.AdminInvite) error {
	id, err := m.insert(ctx, db.AdminInvites, inv)
	if err != nil {
		return err
	}
	inv.ID = id
	return nil
}

func (m *Mongo) UseInvite(ctx context.Context, token string, now time.Time) (*models.AdminInvite, error) {
	filter := bson.M{
		"token":     token,
		"usedAt":    bson.M{"$exists": false},
		"expiresAt": bson.M{"$gt": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var inv models.AdminInvite
	err := m.coll(db.AdminInvites).FindOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{"usedAt": now}}, opts).Decode(&inv)
	if err != nil {
		return nil, translate(err, "use invite")
	}
	return &inv, nil
}
