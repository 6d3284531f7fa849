package graphql

import (
	"errors"
	"log"

	"github.com/gfdmit/web-forum/feed-service/internal/apperr"
	"github.com/gfdmit/web-forum/feed-service/internal/auth"
	"github.com/gfdmit/web-forum/feed-service/internal/service"
	"github.com/graphql-go/graphql"
)

func getPostQuery(gh *gqlHandler, postType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: postType,
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id := p.Args["id"].(string)
			post, err := gh.svc.GetPost(p.Context, id)
			if err != nil {
				return nil, public(err)
			}
			return post, nil
		},
	}
}

func getPostsQuery(gh *gqlHandler, postPageType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: postPageType,
		Args: graphql.FieldConfigArgument{
			"page":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
			"perPage": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			page, err := gh.svc.GetPosts(
				p.Context,
				p.Args["page"].(int),
				p.Args["perPage"].(int),
			)
			if err != nil {
				return nil, public(err)
			}
			return page, nil
		},
	}
}

func deletePostMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Boolean,
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			claims, ok := auth.FromContext(p.Context)
			if !ok {
				return nil, apperr.Unauthenticated(service.MsgNotAuthenticated)
			}
			id := p.Args["id"].(string)
			if err := gh.svc.DeletePost(p.Context, claims.AccountID, id); err != nil {
				return nil, public(err)
			}
			return true, nil
		},
	}
}

// public hides internal failures from clients; the cause is logged.
func public(err error) error {
	if apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	log.Println("[GRAPHQL] resolver error:", err)
	return errors.New("internal server error")
}
