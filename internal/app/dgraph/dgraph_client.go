package dgraph

import (
	"context"

	"github.com/dgraph-io/dgo/v200"
	"github.com/dgraph-io/dgo/v200/protos/api"
	"google.golang.org/grpc"
)

// Dg is dGraph client.
var Dg *dgo.Dgraph

const schema = `
user_id: int @index(int) @upsert .
referral_code: string @index(exact) @upsert .
referred_by: string .
referrer: uid @reverse .
`

// Open connecting to dGraph.
func Open(RPCAddr string) error {
	conn, err := grpc.Dial(RPCAddr, grpc.WithInsecure())
	if err != nil {
		return err
	}

	dc := api.NewDgraphClient(conn)
	Dg = dgo.NewDgraphClient(dc)
	return nil
}

// EnsureSchema installs the predicates the referral mirror uses.
func EnsureSchema(ctx context.Context, dg *dgo.Dgraph) error {
	return dg.Alter(ctx, &api.Operation{Schema: schema})
}
