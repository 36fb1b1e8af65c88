package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Item struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	ItemName     string             `json:"itemName" bson:"itemName"`
	ItemCategory string             `json:"itemCategory" bson:"itemCategory"`
	ItemPrice    float64            `json:"itemPrice" bson:"itemPrice"`
	Status       string             `json:"status" bson:"status"`
	CreatedAt    *time.Time         `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

var ItemSchema = Schema{
	Collection: "items",
	Fields: []Field{
		{Name: "itemName", Kind: NonEmptyString, Required: true},
		{Name: "itemCategory", Kind: NonEmptyString, Required: true},
		{Name: "itemPrice", Kind: Number, Required: true},
		{Name: "status", Kind: String, Required: true},
	},
}
