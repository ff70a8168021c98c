// Package server Reel API
//
// This is the JSON API of the Reel movie site. Pages are served as HTML
// from the same routes.
//
// Schemes: https
// Host: yourhost.com
// BasePath: /
// Version: 0.4.0
// License: AGPLv3 https://www.gnu.org/licenses/agpl-3.0.en.html
// Contact: reel@defsub.com
// SecurityDefinitions:
//  Cookie:
//   type: apiKey
//   name: Cookie
//   description: send Cookie reel={token}
//   in: header
//  Bearer:
//   type: apiKey
//   name: Authorization
//   description: send Authorization Bearer {token}
//   scheme: bearer
//   in: header
// Security:
//  - Bearer:
//  - Cookie:
// Consumes:
// - application/json
// Produces:
// - application/json
//
// swagger:meta
package server

import (
	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/comment"
)

// ---------------------------------------------------------------------------

// swagger:route POST /api/login Login
// responses:
//  200: LoginResponse
//  401: FailResponse

// swagger:route GET /api/search Search
//  Prefix search of movie titles
// parameters:
//  + in: query
//    name: q
//    type: string
// responses:
//  200: SearchResponse

// ---------------------------------------------------------------------------

// swagger:route POST /save_watch_position SaveWatchPosition
// responses:
//  200: SuccessResponse
//  401: FailResponse
//  404: FailResponse

// swagger:route POST /toggle_like ToggleLike
// responses:
//  200: FavoriteResponse
//  401: FailResponse
//  404: FailResponse

// ---------------------------------------------------------------------------

// swagger:route GET /comments CommentList
// parameters:
//  + in: query
//    name: movie_id
//    type: integer
//    required: true
// responses:
//  200: CommentsResponse
//  400: FailResponse

// swagger:route POST /comments CommentPost
// responses:
//  200: CommentResponse
//  400: FailResponse
//  401: FailResponse
//  404: FailResponse
//  429: FailResponse

// swagger:route DELETE /comments/{id} CommentDelete
// parameters:
//  + in: path
//    name: id
//    type: integer
//    required: true
// responses:
//  200: SuccessResponse
//  403: FailResponse
//  404: FailResponse

// swagger:route POST /comments/{id}/like CommentLike
// parameters:
//  + in: path
//    name: id
//    type: integer
//    required: true
// responses:
//  200: LikeResponse
//  404: FailResponse

// ---------------------------------------------------------------------------

// swagger:route POST /admin/movies/{id}/quick_update MovieQuickUpdate
//  Apply a JSON merge patch to the editable fields of a movie
// parameters:
//  + in: path
//    name: id
//    type: integer
//    required: true
// responses:
//  200: PatchResponse
//  400: FailResponse
//  403: FailResponse
//  404: FailResponse

// ---------------------------------------------------------------------------

// swagger:parameters Login
type LoginParameter struct {
	// in: body
	Body struct {
		login
	}
}

// swagger:response
type LoginResponse struct {
	// in: body
	Body struct {
		loginResult
	}
}

// swagger:response
type FailResponse struct {
	// in: body
	Body struct {
		failure
	}
}

// swagger:response
type SuccessResponse struct {
	// in: body
	Body struct {
		success
	}
}

// swagger:response
type SearchResponse struct {
	// in: body
	Body []searchResult
}

// swagger:parameters SaveWatchPosition
type WatchPositionParameter struct {
	// in: body
	Body struct {
		watchPosition
	}
}

// swagger:parameters ToggleLike
type ToggleLikeParameter struct {
	// in: body
	Body struct {
		movieRef
	}
}

// swagger:response
type FavoriteResponse struct {
	// in: body
	Body struct {
		favoriteResult
	}
}

// swagger:response
type CommentsResponse struct {
	// in: body
	Body struct {
		Success  bool           `json:"success"`
		Comments []comment.View `json:"comments"`
	}
}

// swagger:parameters CommentPost
type CommentParameter struct {
	// in: body
	Body struct {
		newComment
	}
}

// swagger:response
type CommentResponse struct {
	// in: body
	Body struct {
		commentResult
	}
}

// swagger:response
type LikeResponse struct {
	// in: body
	Body struct {
		likeResult
	}
}

// swagger:parameters MovieQuickUpdate
type PatchParameter struct {
	// in: body
	Body struct {
		catalog.MovieFields
	}
}

// swagger:response
type PatchResponse struct {
	// in: body
	Body struct {
		patchResult
	}
}
