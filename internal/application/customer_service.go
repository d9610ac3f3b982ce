package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/simplecrud/users-service/internal/domain/entity"
	repo "github.com/simplecrud/users-service/internal/domain/repository"
	"github.com/simplecrud/users-service/pkg/validation"
)

const msgProfileExists = "customer profile with this user already exists."

type CustomerService struct {
	Users     repo.UserRepository
	Customers repo.CustomerRepository
	Logger    *logrus.Logger
	ES        *elasticsearch.Client
	ESIndex   string
}

func NewCustomerService(users repo.UserRepository, customers repo.CustomerRepository, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *CustomerService {
	return &CustomerService{Users: users, Customers: customers, Logger: logger, ES: es, ESIndex: esIndex}
}

type CreateCustomerInput struct {
	UserID      int64
	Role        entity.Role
	UserType    entity.UserType
	Phone       *string
	Address     *string
	CompanyName *string
	ICE         *string
	IsApproved  bool
}

type validCustomer struct {
	owner    *entity.User
	customer entity.Customer
}

func (s *CustomerService) validateCreate(ctx context.Context, in CreateCustomerInput) (validation.Result[validCustomer], error) {
	errs := validation.FieldErrors{}
	owner, err := s.Users.GetByID(ctx, in.UserID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		errs.Add("user", fmt.Sprintf("Invalid pk %q - object does not exist.", strconv.FormatInt(in.UserID, 10)))
	case err != nil:
		return validation.Result[validCustomer]{}, fmt.Errorf("lookup user: %w", err)
	default:
		_, err := s.Customers.GetByUserID(ctx, in.UserID)
		if err == nil {
			errs.Add("user", msgProfileExists)
		} else if !errors.Is(err, repo.ErrNotFound) {
			return validation.Result[validCustomer]{}, fmt.Errorf("lookup customer: %w", err)
		}
	}
	if errs.HasErrors() {
		return validation.Invalid[validCustomer](errs), nil
	}

	c := entity.Customer{
		UserID:      in.UserID,
		Role:        in.Role,
		UserType:    in.UserType,
		Phone:       in.Phone,
		Address:     in.Address,
		CompanyName: in.CompanyName,
		ICE:         in.ICE,
		IsApproved:  in.IsApproved,
	}
	if c.Role == "" {
		c.Role = entity.RoleCustomer
	}
	if c.UserType == "" {
		c.UserType = entity.UserTypeIndividual
	}
	return validation.Valid(validCustomer{owner: owner, customer: c}), nil
}

// Create attaches a customer profile to an existing user.
func (s *CustomerService) Create(ctx context.Context, in CreateCustomerInput) (*entity.Customer, error) {
	res, err := s.validateCreate(ctx, in)
	if err != nil {
		return nil, err
	}
	v, ok := res.Value()
	if !ok {
		return nil, &ValidationError{Fields: res.Errors()}
	}
	c := v.customer
	if err := s.Customers.Create(ctx, &c); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			fields := validation.FieldErrors{}
			fields.Add("user", msgProfileExists)
			return nil, &ValidationError{Fields: fields}
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}
	counters.Add(metricCustomerCreated, 1)
	_ = s.indexCustomer(ctx, v.owner, &c)
	return &c, nil
}

func (s *CustomerService) List(ctx context.Context) ([]entity.Customer, error) {
	return s.Customers.List(ctx)
}

func (s *CustomerService) indexCustomer(ctx context.Context, owner *entity.User, c *entity.Customer) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":           c.ID,
		"user":         c.UserID,
		"username":     owner.Username,
		"email":        owner.Email,
		"display_name": c.DisplayName(owner),
		"role":         c.Role,
		"user_type":    c.UserType,
		"phone":        c.Phone,
		"address":      c.Address,
		"company_name": c.CompanyName,
		"ice":          c.ICE,
		"is_approved":  c.IsApproved,
		"created_at":   c.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: strconv.FormatInt(c.ID, 10), Body: strings.NewReader(string(b)), Refresh: "false"}
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(cctx, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("customer_id", c.ID).Warn("es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("customer_id", c.ID).Warn("es index response error")
	}
	return nil
}

// Search runs a multi_match query over the customer index. It returns an
// empty slice when search is not configured.
func (s *CustomerService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "email^2", "display_name", "company_name", "phone"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(cctx), s.ES.Search.WithIndex(s.ESIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
