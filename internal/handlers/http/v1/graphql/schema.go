package graphql

import (
	"time"

	"github.com/gfdmit/web-forum/feed-service/internal/model"
	"github.com/graphql-go/graphql"
)

var DateTime = graphql.NewScalar(
	graphql.ScalarConfig{
		Name:        "DateTime",
		Description: "DateTime scalar type",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v.Format(time.RFC3339)
			case *time.Time:
				return v.Format(time.RFC3339)
			default:
				return nil
			}
		},
	},
)

func (gh *gqlHandler) initSchema() error {
	postType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Post",
			Fields: graphql.Fields{
				"id":        &graphql.Field{Type: graphql.ID, Resolve: resolvePostID},
				"title":     &graphql.Field{Type: graphql.String},
				"content":   &graphql.Field{Type: graphql.String},
				"imageUrl":  &graphql.Field{Type: graphql.String},
				"creator":   &graphql.Field{Type: graphql.ID},
				"createdAt": &graphql.Field{Type: DateTime},
				"updatedAt": &graphql.Field{Type: DateTime},
			},
		},
	)

	postPageType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "PostPage",
			Fields: graphql.Fields{
				"posts":      &graphql.Field{Type: graphql.NewList(postType)},
				"postsCount": &graphql.Field{Type: graphql.Int},
			},
		},
	)

	queryType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"post":  getPostQuery(gh, postType),
				"posts": getPostsQuery(gh, postPageType),
			},
		},
	)

	mutationType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"deletePost": deletePostMutation(gh),
			},
		},
	)

	schemaConfig := graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	}

	schema, err := graphql.NewSchema(schemaConfig)
	if err != nil {
		return err
	}
	gh.schema = schema

	return nil
}

func resolvePostID(p graphql.ResolveParams) (interface{}, error) {
	switch post := p.Source.(type) {
	case model.Post:
		return post.ID, nil
	case *model.Post:
		return post.ID, nil
	default:
		return nil, nil
	}
}
