package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

const collectionLeads = "leads"

type LeadRepository struct {
	col *mongo.Collection
}

func NewLeadRepository(db *mongo.Database) *LeadRepository {
	return &LeadRepository{col: db.Collection(collectionLeads)}
}

// Create inserts a new lead document, assigning an ID when none is set.
func (r *LeadRepository) Create(ctx context.Context, l *domain.Lead) (*domain.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if l.ID == "" {
		l.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.col.InsertOne(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// CreateMany bulk-inserts leads for the spreadsheet import.
func (r *LeadRepository) CreateMany(ctx context.Context, leads []*domain.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs := make([]any, 0, len(leads))
	for _, l := range leads {
		if l.ID == "" {
			l.ID = primitive.NewObjectID().Hex()
		}
		docs = append(docs, l)
	}

	res, err := r.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if res != nil {
		return len(res.InsertedIDs), err
	}
	return 0, err
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var l domain.Lead
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, err
	}
	return &l, nil
}

// scopeFilter restricts a query to the caller's visible leads. An empty
// OwnerIDs slice means no scoping (admin).
func scopeFilter(ownerIDs []string, includeUnassigned bool) bson.M {
	if len(ownerIDs) == 0 {
		return bson.M{}
	}
	owned := bson.M{"assigned_to": bson.M{"$in": ownerIDs}}
	if !includeUnassigned {
		return owned
	}
	return bson.M{"$or": bson.A{
		owned,
		bson.M{"assigned_to": bson.M{"$in": bson.A{"", nil}}},
	}}
}

func searchClause(query string) bson.M {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": re},
		bson.M{"email": re},
		bson.M{"phone": primitive.Regex{Pattern: regexp.QuoteMeta(query)}},
	}}
}

// dateFilterClause translates the named windows into ranges over the
// denormalised next_task_date, using the same midnight-truncated boundaries
// as the domain date classifiers.
func dateFilterClause(filter string, now time.Time) bson.M {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch filter {
	case "today":
		return bson.M{"next_task_date": bson.M{"$gte": midnight, "$lt": midnight.AddDate(0, 0, 1)}}
	case "overdue":
		// $gt zero excludes leads with no task date set
		return bson.M{"next_task_date": bson.M{"$gt": time.Time{}, "$lt": midnight}}
	case "thisWeek":
		weekStart := midnight.AddDate(0, 0, -int(midnight.Weekday()))
		return bson.M{"next_task_date": bson.M{"$gte": weekStart, "$lt": weekStart.AddDate(0, 0, 7)}}
	case "thisMonth":
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return bson.M{"next_task_date": bson.M{"$gte": monthStart, "$lt": monthStart.AddDate(0, 1, 0)}}
	default:
		return nil
	}
}

func listFilter(f ports.ListLeadsFilter) bson.M {
	clauses := bson.A{scopeFilter(f.OwnerIDs, f.IncludeUnassigned)}

	if f.Search != "" {
		clauses = append(clauses, searchClause(f.Search))
	}
	if f.Status != "" {
		clauses = append(clauses, bson.M{"status": f.Status})
	}
	if f.HotLead != nil {
		clauses = append(clauses, bson.M{"hot_lead": *f.HotLead})
	}
	if c := dateFilterClause(f.DateFilter, f.Now); c != nil {
		clauses = append(clauses, c)
	}
	if !f.FromDate.IsZero() {
		clauses = append(clauses, bson.M{"lead_dated": bson.M{"$gte": f.FromDate}})
	}
	if !f.ToDate.IsZero() {
		clauses = append(clauses, bson.M{"lead_dated": bson.M{"$lte": f.ToDate}})
	}

	return bson.M{"$and": clauses}
}

// List returns one page of leads plus the total match count. The stats block
// and status counts are computed over the whole scope, before the page
// filters, so the dashboard numbers do not shrink while filtering.
func (r *LeadRepository) List(ctx context.Context, f ports.ListLeadsFilter) ([]*domain.Lead, int64, *ports.LeadStats, map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := listFilter(f)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, nil, nil, err
	}

	limit := int64(f.Limit)
	skip := int64(f.Page-1) * limit
	if skip < 0 {
		skip = 0
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, nil, nil, err
	}
	var leads []*domain.Lead
	if err := cur.All(ctx, &leads); err != nil {
		return nil, 0, nil, nil, err
	}

	stats, statusCounts, err := r.aggregateScope(ctx, scopeFilter(f.OwnerIDs, f.IncludeUnassigned))
	if err != nil {
		return nil, 0, nil, nil, err
	}

	return leads, total, stats, statusCounts, nil
}

func (r *LeadRepository) aggregateScope(ctx context.Context, scope bson.M) (*ports.LeadStats, map[string]int64, error) {
	assignedCond := bson.M{"$cond": bson.A{
		bson.M{"$and": bson.A{
			bson.M{"$ne": bson.A{"$assigned_to", ""}},
			bson.M{"$ne": bson.A{"$assigned_to", nil}},
		}},
		1, 0,
	}}

	statsPipe := mongo.Pipeline{
		{{Key: "$match", Value: scope}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"total":    bson.M{"$sum": 1},
			"hot":      bson.M{"$sum": bson.M{"$cond": bson.A{"$hot_lead", 1, 0}}},
			"assigned": bson.M{"$sum": assignedCond},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, statsPipe)
	if err != nil {
		return nil, nil, err
	}
	var statsRows []struct {
		Total    int64 `bson:"total"`
		Hot      int64 `bson:"hot"`
		Assigned int64 `bson:"assigned"`
	}
	if err := cur.All(ctx, &statsRows); err != nil {
		return nil, nil, err
	}

	stats := &ports.LeadStats{}
	if len(statsRows) > 0 {
		stats.Total = statsRows[0].Total
		stats.HotLeads = statsRows[0].Hot
		stats.Assigned = statsRows[0].Assigned
		stats.Unassigned = stats.Total - stats.Assigned
	}

	countsPipe := mongo.Pipeline{
		{{Key: "$match", Value: scope}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cur, err = r.col.Aggregate(ctx, countsPipe)
	if err != nil {
		return nil, nil, err
	}
	var countRows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &countRows); err != nil {
		return nil, nil, err
	}

	statusCounts := make(map[string]int64, len(countRows))
	for _, row := range countRows {
		statusCounts[row.Status] = row.Count
	}

	return stats, statusCounts, nil
}

// Update replaces the mutable fields of a lead in one write.
func (r *LeadRepository) Update(ctx context.Context, l *domain.Lead) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": l.ID}, l)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}

// AppendFollowUp atomically pushes one interaction and rewrites the
// denormalised last_remark / next_task_date fields in the same update.
func (r *LeadRepository) AppendFollowUp(ctx context.Context, id string, remark string, nextTaskDate time.Time, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"interactions": domain.Interaction{Remark: remark, Date: at}},
		"$set": bson.M{
			"last_remark":    remark,
			"next_task_date": nextTaskDate,
			"updated_at":     at,
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}

// SetAssignee sets assigned_to; an empty userID returns the lead to the pool.
func (r *LeadRepository) SetAssignee(ctx context.Context, id string, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"assigned_to": userID, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) Search(ctx context.Context, f ports.SearchLeadsFilter) ([]*domain.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	clauses := bson.A{scopeFilter(f.OwnerIDs, f.IncludeUnassigned)}
	if f.Query != "" {
		clauses = append(clauses, searchClause(f.Query))
	}
	if f.Assigned != nil {
		if *f.Assigned {
			clauses = append(clauses, bson.M{"assigned_to": bson.M{"$nin": bson.A{"", nil}}})
		} else {
			clauses = append(clauses, bson.M{"assigned_to": bson.M{"$in": bson.A{"", nil}}})
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.col.Find(ctx, bson.M{"$and": clauses}, opts)
	if err != nil {
		return nil, err
	}
	var leads []*domain.Lead
	if err := cur.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// EnsureIndexes creates the indexes backing the listing, search and
// assignment queries.
func (r *LeadRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "assigned_to", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "next_task_date", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "phone", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
