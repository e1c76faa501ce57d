package resourcemap

// ExampleContent is the starter map written by init resource-map
const ExampleContent = `# costdelta resource map
# Each entry tells the estimator which Price List product prices a resource
# type and how to turn its unit price into a monthly cost.
version: 1

# Types that carry no direct cost. They are counted but get no row.
free:
  - AWS::IAM::Role
  - AWS::IAM::Policy
  - AWS::IAM::ManagedPolicy
  - AWS::SSM::Parameter
  - AWS::Logs::LogGroup
  - AWS::EC2::SecurityGroup
  - AWS::Lambda::Permission

resources:
  AWS::EC2::Instance:
    service: AmazonEC2
    unit: Hrs
    hourlyMultiplier: 730
    filters:
      - field: instanceType
        value:
          fromProperty: InstanceType
          default: t3.micro
      - field: operatingSystem
        value:
          default: Linux
      - field: tenancy
        value:
          default: Shared
      - field: preInstalledSw
        value:
          default: NA
      - field: capacitystatus
        value:
          default: Used

  AWS::EC2::NatGateway:
    service: AmazonEC2
    unit: Hrs
    hourlyMultiplier: 730
    filters:
      - field: productFamily
        value:
          default: NAT Gateway
      - field: usagetype
        value:
          default: NatGateway-Hours

  AWS::EC2::Volume:
    service: AmazonEC2
    unit: GB-Mo
    quantityMultiplier: 100
    filters:
      - field: productFamily
        value:
          default: Storage
      - field: volumeApiName
        value:
          fromProperty: VolumeType
          default: gp3

  AWS::RDS::DBInstance:
    service: AmazonRDS
    unit: Hrs
    hourlyMultiplier: 730
    filters:
      - field: instanceType
        value:
          fromProperty: DBInstanceClass
          default: db.t3.micro
      - field: databaseEngine
        value:
          default: PostgreSQL
      - field: deploymentOption
        value:
          default: Single-AZ
`
