package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

const collectionReports = "sales_reports"

type ReportRepository struct {
	col *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{col: db.Collection(collectionReports)}
}

func (r *ReportRepository) Create(ctx context.Context, report *domain.SalesReport) (*domain.SalesReport, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if report.ID == "" {
		report.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.col.InsertOne(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *ReportRepository) FindByID(ctx context.Context, id string) (*domain.SalesReport, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var report domain.SalesReport
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&report); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) List(ctx context.Context, f ports.ListReportsFilter) ([]*domain.SalesReport, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{}
	if len(f.UserIDs) > 0 {
		filter["user_id"] = bson.M{"$in": f.UserIDs}
	}
	dateRange := bson.M{}
	if !f.FromDate.IsZero() {
		dateRange["$gte"] = f.FromDate
	}
	if !f.ToDate.IsZero() {
		dateRange["$lt"] = f.ToDate
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var reports []*domain.SalesReport
	if err := cur.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *ReportRepository) Update(ctx context.Context, report *domain.SalesReport) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": report.ID}, report)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

// SetAddress stores the reverse-geocoded address resolved by the workers.
func (r *ReportRepository) SetAddress(ctx context.Context, id string, address string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"address": address, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

// AppendFollowUp pushes one follow-up into the addressed meeting, atomically
// via an array filter on the meeting ID.
func (r *ReportRepository) AppendFollowUp(ctx context.Context, reportID, meetingID string, fu domain.FollowUp) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": reportID, "meetings.id": meetingID},
		bson.M{
			"$push": bson.M{"meetings.$[m].follow_ups": fu},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: bson.A{bson.M{"m.id": meetingID}},
		}),
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

// FindByFollowUpID locates the report containing the follow-up.
func (r *ReportRepository) FindByFollowUpID(ctx context.Context, followUpID string) (*domain.SalesReport, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var report domain.SalesReport
	err := r.col.FindOne(ctx, bson.M{"meetings.follow_ups.id": followUpID}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrFollowUpNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) UpdateFollowUp(ctx context.Context, followUpID string, date time.Time, remark string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"meetings.follow_ups.id": followUpID},
		bson.M{"$set": bson.M{
			"meetings.$[].follow_ups.$[f].date":   date,
			"meetings.$[].follow_ups.$[f].remark": remark,
			"updated_at":                          time.Now().UTC(),
		}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: bson.A{bson.M{"f.id": followUpID}},
		}),
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrFollowUpNotFound
	}
	return nil
}

func (r *ReportRepository) DeleteFollowUp(ctx context.Context, followUpID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"meetings.follow_ups.id": followUpID},
		bson.M{
			"$pull": bson.M{"meetings.$[].follow_ups": bson.M{"id": followUpID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrFollowUpNotFound
	}
	return nil
}

// CountsByUser aggregates per-agent report counts for the activity summary.
func (r *ReportRepository) CountsByUser(ctx context.Context, todayStart, yesterdayStart time.Time) ([]ports.UserReportCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pipe := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$user_id",
			"total": bson.M{"$sum": 1},
			"today": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$date", todayStart}}, 1, 0,
			}}},
			"yesterday": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$gte": bson.A{"$date", yesterdayStart}},
					bson.M{"$lt": bson.A{"$date", todayStart}},
				}}, 1, 0,
			}}},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		UserID    string `bson:"_id"`
		Total     int64  `bson:"total"`
		Today     int64  `bson:"today"`
		Yesterday int64  `bson:"yesterday"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make([]ports.UserReportCounts, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, ports.UserReportCounts{
			UserID:    row.UserID,
			Today:     row.Today,
			Yesterday: row.Yesterday,
			Total:     row.Total,
		})
	}
	return counts, nil
}

// EnsureIndexes creates the indexes backing the listing and follow-up lookups.
func (r *ReportRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "meetings.follow_ups.id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
