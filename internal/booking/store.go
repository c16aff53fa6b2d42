package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/healthfirst/connect/pkg/logging"
)

const (
	// indexByUser orders a user's appointments by creation time; queries run
	// descending so the dashboard sees the most recent booking first.
	indexByUser = "userId-createdAt-index"
	// indexByTransaction resolves receipts after the payment redirect.
	indexByTransaction = "transactionId-index"

	// timestampLayout is RFC 3339 with fixed-width, zero-padded nanoseconds.
	// RFC3339Nano strips trailing zeros, so "..05.1Z" would sort after
	// "..05.15Z" under DynamoDB's byte-wise key comparison; the padded form
	// keeps createdAt range-key order equal to creation order.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// appointmentRecord is the persisted shape. Timestamps are fixed-width
// timestampLayout strings so the createdAt range key sorts lexicographically
// in creation order.
type appointmentRecord struct {
	ID            string `dynamodbav:"id"`
	UserID        string `dynamodbav:"userId"`
	ServiceID     string `dynamodbav:"serviceId"`
	ServiceName   string `dynamodbav:"serviceName"`
	Price         int64  `dynamodbav:"price"`
	Date          string `dynamodbav:"date"`
	Time          string `dynamodbav:"time"`
	PatientName   string `dynamodbav:"patientName"`
	PatientEmail  string `dynamodbav:"patientEmail"`
	PatientPhone  string `dynamodbav:"patientPhone"`
	Status        string `dynamodbav:"status"`
	TransactionID string `dynamodbav:"transactionId"`
	CreatedAt     string `dynamodbav:"createdAt"`
	PaymentDate   string `dynamodbav:"paymentDate"`
}

// Store persists appointments to the external document store.
type Store struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
	now       func() time.Time
	newID     func() string
}

// NewStore builds a store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, tableName string, logger *logging.Logger) *Store {
	if client == nil {
		panic("booking: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("booking: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create persists a new appointment, assigning its record id and creation
// timestamp, and returns the materialized record.
func (s *Store) Create(ctx context.Context, appt Appointment) (Appointment, error) {
	if appt.UserID == "" {
		return Appointment{}, errors.New("booking: create requires an owning user id")
	}

	appt.ID = s.newID()
	appt.CreatedAt = s.now().UTC()
	if appt.PaymentDate.IsZero() {
		appt.PaymentDate = appt.CreatedAt
	}

	item, err := attributevalue.MarshalMap(toRecord(appt))
	if err != nil {
		return Appointment{}, fmt.Errorf("booking: marshal appointment: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return Appointment{}, fmt.Errorf("booking: persist appointment: %w", err)
	}
	return appt, nil
}

// ListByUser returns all appointments owned by userID, most recent first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	if userID == "" {
		return nil, errors.New("booking: list requires a user id")
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(indexByUser),
		KeyConditionExpression: aws.String("userId = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("booking: query appointments: %w", err)
	}

	records := make([]appointmentRecord, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, fmt.Errorf("booking: decode appointments: %w", err)
	}

	appts := make([]Appointment, 0, len(records))
	for _, rec := range records {
		appt, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, nil
}

// FindByTransaction resolves the appointment correlated to a payment
// transaction id, scoped to the owning user. A transaction id alone is not
// sufficient authorization. Returns ErrAppointmentNotFound on a miss.
func (s *Store) FindByTransaction(ctx context.Context, userID, transactionID string) (Appointment, error) {
	if userID == "" || transactionID == "" {
		return Appointment{}, errors.New("booking: find requires user and transaction ids")
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(indexByTransaction),
		KeyConditionExpression: aws.String("transactionId = :tx"),
		FilterExpression:       aws.String("userId = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tx":  &types.AttributeValueMemberS{Value: transactionID},
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return Appointment{}, fmt.Errorf("booking: query by transaction: %w", err)
	}
	if len(out.Items) == 0 {
		return Appointment{}, ErrAppointmentNotFound
	}

	var rec appointmentRecord
	if err := attributevalue.UnmarshalMap(out.Items[0], &rec); err != nil {
		return Appointment{}, fmt.Errorf("booking: decode appointment: %w", err)
	}
	return fromRecord(rec)
}

// Get fetches a single appointment by record id.
func (s *Store) Get(ctx context.Context, id string) (Appointment, error) {
	if id == "" {
		return Appointment{}, errors.New("booking: get requires an id")
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return Appointment{}, fmt.Errorf("booking: fetch appointment: %w", err)
	}
	if out.Item == nil {
		return Appointment{}, ErrAppointmentNotFound
	}

	var rec appointmentRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return Appointment{}, fmt.Errorf("booking: decode appointment: %w", err)
	}
	return fromRecord(rec)
}

// SetStatus updates exactly the status field of an appointment. The condition
// expression keeps ownership enforcement at the store layer: the update only
// applies when the record exists and belongs to userID.
func (s *Store) SetStatus(ctx context.Context, userID, id string, status Status) error {
	if userID == "" || id == "" {
		return errors.New("booking: set status requires user and appointment ids")
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET #status = :status"),
		ConditionExpression: aws.String("attribute_exists(id) AND userId = :uid"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
			":uid":    &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return fmt.Errorf("booking: update status for %s: %w", id, err)
	}
	return nil
}

func toRecord(a Appointment) appointmentRecord {
	return appointmentRecord{
		ID:            a.ID,
		UserID:        a.UserID,
		ServiceID:     a.ServiceID,
		ServiceName:   a.ServiceName,
		Price:         a.Price,
		Date:          a.Date,
		Time:          a.Time,
		PatientName:   a.PatientName,
		PatientEmail:  a.PatientEmail,
		PatientPhone:  a.PatientPhone,
		Status:        string(a.Status),
		TransactionID: a.TransactionID,
		CreatedAt:     a.CreatedAt.UTC().Format(timestampLayout),
		PaymentDate:   a.PaymentDate.UTC().Format(timestampLayout),
	}
}

func fromRecord(r appointmentRecord) (Appointment, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return Appointment{}, fmt.Errorf("booking: decode createdAt %q: %w", r.CreatedAt, err)
	}
	paymentDate, err := time.Parse(time.RFC3339Nano, r.PaymentDate)
	if err != nil {
		return Appointment{}, fmt.Errorf("booking: decode paymentDate %q: %w", r.PaymentDate, err)
	}
	return Appointment{
		ID:            r.ID,
		UserID:        r.UserID,
		ServiceID:     r.ServiceID,
		ServiceName:   r.ServiceName,
		Price:         r.Price,
		Date:          r.Date,
		Time:          r.Time,
		PatientName:   r.PatientName,
		PatientEmail:  r.PatientEmail,
		PatientPhone:  r.PatientPhone,
		Status:        Status(r.Status),
		TransactionID: r.TransactionID,
		CreatedAt:     createdAt,
		PaymentDate:   paymentDate,
	}, nil
}
