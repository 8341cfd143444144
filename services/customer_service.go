package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/utils"
	"gorm.io/gorm"
)

// CustomerService is the phone-keyed customer directory.
type CustomerService struct {
	DB    *gorm.DB
	locks *phoneLocks
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{DB: db, locks: newPhoneLocks()}
}

type CreateCustomerInput struct {
	Name  string
	Phone string
}

// UpdateCustomerInput is a sparse patch; nil fields are left untouched.
type UpdateCustomerInput struct {
	Name  *string
	Phone *string
}

// FindByPhone returns the first customer whose phone equals phone byte for byte.
func (s *CustomerService) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return findCustomerByPhone(s.DB.WithContext(ctx), phone)
}

// Create inserts a customer without checking for an existing phone.
// Use Resolve when the phone may already be known.
func (s *CustomerService) Create(ctx context.Context, in CreateCustomerInput) (*models.Customer, error) {
	return createCustomer(s.DB.WithContext(ctx), in)
}

// Update overlays the non-nil fields of in onto customer id.
func (s *CustomerService) Update(ctx context.Context, id uint, in UpdateCustomerInput) (*models.Customer, error) {
	db := s.DB.WithContext(ctx)

	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "Customer with id %d not found", id)
		}
		return nil, fmt.Errorf("load customer %d: %w", id, err)
	}

	if in.Name != nil {
		customer.Name = *in.Name
	}
	if in.Phone != nil {
		customer.Phone = *in.Phone
	}
	if err := validateCustomer(customer.Name, customer.Phone); err != nil {
		return nil, err
	}

	if err := db.Save(&customer).Error; err != nil {
		return nil, fmt.Errorf("update customer %d: %w", id, err)
	}

	utils.InfoLogger.Printf("Customer %d updated", customer.ID)
	return &customer, nil
}

// Resolve returns the customer for phone, creating it with name when absent.
// Calls for the same phone are serialized, so concurrent callers share one record.
func (s *CustomerService) Resolve(ctx context.Context, name, phone string) (*models.Customer, bool, error) {
	unlock := s.locks.lock(phone)
	defer unlock()

	var (
		customer *models.Customer
		created  bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		customer, created, err = resolveCustomer(tx, name, phone)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return customer, created, nil
}

func resolveCustomer(tx *gorm.DB, name, phone string) (*models.Customer, bool, error) {
	customer, err := findCustomerByPhone(tx, phone)
	if err == nil {
		return customer, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	customer, err = createCustomer(tx, CreateCustomerInput{Name: name, Phone: phone})
	if err != nil {
		return nil, false, err
	}
	return customer, true, nil
}

func findCustomerByPhone(db *gorm.DB, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := db.Where("phone = ?", phone).Order("id ASC").First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "Customer with phone %s not found", phone)
		}
		return nil, fmt.Errorf("find customer by phone: %w", err)
	}
	return &customer, nil
}

func createCustomer(db *gorm.DB, in CreateCustomerInput) (*models.Customer, error) {
	if err := validateCustomer(in.Name, in.Phone); err != nil {
		return nil, err
	}

	customer := models.Customer{
		Name:  in.Name,
		Phone: in.Phone,
	}
	if err := db.Create(&customer).Error; err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	utils.InfoLogger.Printf("New customer created (ID=%d)", customer.ID)
	return &customer, nil
}

func validateCustomer(name, phone string) error {
	if n := utf8.RuneCountInString(name); n < 1 || n > 100 {
		return newError(KindInvalidRequest, "customer name must be 1-100 characters")
	}
	if utf8.RuneCountInString(phone) > 20 {
		return newError(KindInvalidRequest, "customer phone must be at most 20 characters")
	}
	return nil
}
