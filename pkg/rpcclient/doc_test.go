package rpcclient_test

import (
	"context"
	"fmt"
	"os"

	"github.com/nspcc-dev/starkroot/pkg/rpcclient"
)

func Example() {
	endpoint := "http://localhost:9545/rpc/v0_6"
	c, err := rpcclient.New(endpoint, rpcclient.Options{})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer c.Close()

	ds := rpcclient.NewRetrying(c, rpcclient.RetryOptions{}, nil)
	su, err := ds.GetStateUpdate(context.TODO(), 1000)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println(su.NewRoot)
}
