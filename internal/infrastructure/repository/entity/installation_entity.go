package entity

import (
	"time"

	"shopify-oauth-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoInstallationDoc represents an installation in MongoDB
type MongoInstallationDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Shop        string             `bson:"shop"`
	Scope       string             `bson:"scope"`
	ShopName    string             `bson:"shopName,omitempty"`
	Email       string             `bson:"email,omitempty"`
	PlanName    string             `bson:"planName,omitempty"`
	InstalledAt time.Time          `bson:"installedAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoInstallationDoc) ToDomain() *domain.Installation {
	inst := &domain.Installation{
		Shop:        d.Shop,
		Scope:       d.Scope,
		ShopName:    d.ShopName,
		Email:       d.Email,
		PlanName:    d.PlanName,
		InstalledAt: d.InstalledAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if !d.ID.IsZero() {
		inst.ID = d.ID.Hex()
	}
	return inst
}

// MongoInstallationDocFromDomain converts a domain entity to a MongoDB document
func MongoInstallationDocFromDomain(inst *domain.Installation) *MongoInstallationDoc {
	doc := &MongoInstallationDoc{
		Shop:        inst.Shop,
		Scope:       inst.Scope,
		ShopName:    inst.ShopName,
		Email:       inst.Email,
		PlanName:    inst.PlanName,
		InstalledAt: inst.InstalledAt,
		UpdatedAt:   inst.UpdatedAt,
	}

	if inst.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(inst.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}
