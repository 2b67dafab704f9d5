package validators

import "go.mongodb.org/mongo-driver/bson"

var CalendarEventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"owner_id",
			"provider",
			"provider_id",
			"start",
			"end",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"provider": bson.M{
				"bsonType": "string",
				"enum": []string{
					"google-calendar",
					"outlook-calendar",
				},
			},

			"provider_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"start": bson.M{
				"bsonType": "date",
			},

			"end": bson.M{
				"bsonType": "date",
			},

			"label": bson.M{
				"bsonType": "string",
			},

			"synced_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
