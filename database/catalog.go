package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"vitrine-checkout-api/models"
)

// ErrItemNotFound indica que o identificador não corresponde a nenhum
// serviço ou curso ativo. É um erro terminal para a sessão de checkout.
var ErrItemNotFound = errors.New("item not found")

// GetServiceItem carrega a projeção de um serviço do catálogo
func (c *Connection) GetServiceItem(serviceID string) (*models.PurchasableItem, error) {
	query := `
		SELECT s.id, s.title, s.price, COALESCE(s.monthly_price, 0),
		       s.billing_type, s.images_json,
		       p.id, p.display_name
		FROM services s
		JOIN providers p ON p.id = s.provider_id
		WHERE s.id = ? AND s.deleted_at IS NULL
	`
	return c.scanItem(query, serviceID, models.ItemKindService)
}

// GetCourseItem carrega a projeção de um curso do catálogo
func (c *Connection) GetCourseItem(courseID string) (*models.PurchasableItem, error) {
	query := `
		SELECT cr.id, cr.title, cr.price, COALESCE(cr.monthly_price, 0),
		       cr.billing_type, cr.images_json,
		       p.id, p.display_name
		FROM courses cr
		JOIN providers p ON p.id = cr.provider_id
		WHERE cr.id = ? AND cr.deleted_at IS NULL
	`
	return c.scanItem(query, courseID, models.ItemKindCourse)
}

func (c *Connection) scanItem(query, id string, kind models.ItemKind) (*models.PurchasableItem, error) {
	var item models.PurchasableItem
	var imagesJSON sql.NullString
	var billing string

	err := c.db.QueryRow(query, id).Scan(
		&item.ID,
		&item.Title,
		&item.Price,
		&item.MonthlyPrice,
		&billing,
		&imagesJSON,
		&item.ProviderID,
		&item.ProviderName,
	)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		log.Printf("Error getting %s %s: %v", kind, id, err)
		return nil, fmt.Errorf("error getting item: %v", err)
	}

	item.Kind = kind
	item.BillingType = models.BillingType(billing)

	if imagesJSON.Valid && imagesJSON.String != "" {
		if err := json.Unmarshal([]byte(imagesJSON.String), &item.Images); err != nil {
			// Lista de imagens é opcional; não derruba o carregamento
			log.Printf("Warning: invalid images json for %s %s: %v", kind, id, err)
		}
	}

	return &item, nil
}
