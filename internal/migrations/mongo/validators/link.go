package validators

import "go.mongodb.org/mongo-driver/bson"

var LinkValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"owner_id",
			"title",
			"duration_min",
			"start_time",
			"end_time",
			"active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"token": bson.M{
				"bsonType": "string",
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"owner_phone": bson.M{
				"bsonType": "string",
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"duration_min": bson.M{
				"bsonType": "int",
				"minimum":  5,
				"maximum":  480,
			},

			"start_date": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
			},

			"end_date": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{2}:\\d{2}$",
			},

			"end_time": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{2}:\\d{2}$",
			},

			"weekdays": bson.M{
				"bsonType": "array",
				"maxItems": 7,
				"items": bson.M{
					"bsonType": "int",
					"minimum":  0,
					"maximum":  6,
				},
			},

			"buffer_before_min": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  240,
			},

			"buffer_after_min": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  240,
			},

			"max_bookings": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"max_bookings_per_day": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"remaining_bookings": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"requires_approval": bson.M{
				"bsonType": "bool",
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"time_zone": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
