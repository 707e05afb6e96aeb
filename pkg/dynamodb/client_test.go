package dynamodb

import (
	"context"
	"errors"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
)

type fakeDescribe struct {
	out *dynamodb.DescribeTableOutput
	err error
}

func (f fakeDescribe) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return f.out, f.err
}

func TestCheckTable(t *testing.T) {
	ctx := context.Background()

	active := &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: sdkaws.String("runs"), TableStatus: types.TableStatusActive}}
	assert.NoError(t, CheckTable(ctx, fakeDescribe{out: active}, "runs"))

	creating := &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableStatus: types.TableStatusCreating}}
	assert.ErrorContains(t, CheckTable(ctx, fakeDescribe{out: creating}, "runs"), "CREATING")

	missing := fakeDescribe{err: &types.ResourceNotFoundException{Message: sdkaws.String("nope")}}
	assert.ErrorContains(t, CheckTable(ctx, missing, "runs"), "does not exist")

	assert.ErrorContains(t, CheckTable(ctx, fakeDescribe{err: errors.New("throttled")}, "runs"), "throttled")
}
